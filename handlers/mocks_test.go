package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"medibot/models"
	"medibot/utils"
)

var (
	_ models.AppointmentStore   = (*failingStore)(nil)
	_ utils.KafkaProducer       = (*mockProducer)(nil)
	_ utils.RedisClient         = (*mockCache)(nil)
	_ utils.ElasticsearchClient = (*mockSearch)(nil)
)

var testTime = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type failingStore struct{}

func (failingStore) Append(context.Context, *models.Appointment) error {
	return errors.New("connection reset by peer")
}
func (failingStore) List(context.Context) ([]models.Appointment, error) {
	return nil, errors.New("connection reset by peer")
}
func (failingStore) Get(context.Context, uint) (*models.Appointment, error) {
	return nil, errors.New("connection reset by peer")
}
func (failingStore) StoreID() string { return "failing" }
func (failingStore) Close() error     { return nil }

type sentMessage struct {
	Topic string
	Key   []byte
	Value []byte
}

type mockProducer struct {
	sent    chan sentMessage
	release chan struct{}
}

func newMockProducer() *mockProducer {
	return &mockProducer{sent: make(chan sentMessage, 8)}
}

// newBlockingProducer returns a producer whose sends wait until release is closed.
func newBlockingProducer() *mockProducer {
	return &mockProducer{sent: make(chan sentMessage, 8), release: make(chan struct{})}
}

func (m *mockProducer) SendMessage(_ context.Context, topic string, key, value []byte) error {
	if m.release != nil {
		<-m.release
	}
	m.sent <- sentMessage{Topic: topic, Key: key, Value: value}
	return nil
}
func (m *mockProducer) Close() error { return nil }

type mockCache struct {
	mu     sync.Mutex
	data   map[string]string
	setErr error
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string]string{}}
}

func (m *mockCache) GetFromCache(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *mockCache) SetToCache(_ context.Context, key string, value string, _ time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}
func (m *mockCache) Close() error { return nil }

type indexedDoc struct {
	Index string
	ID    string
	Doc   interface{}
}

type mockSearch struct {
	mu        sync.Mutex
	hits      []json.RawMessage
	err       error
	lastQuery map[string]interface{}
	indexed   []indexedDoc
}

func (m *mockSearch) IndexDocument(_ context.Context, index, id string, doc interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indexed = append(m.indexed, indexedDoc{Index: index, ID: id, Doc: doc})
	return nil
}
func (m *mockSearch) Search(_ context.Context, _ string, query map[string]interface{}) ([]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastQuery = query
	return m.hits, m.err
}
func (m *mockSearch) Close() error { return nil }

type testServer struct {
	router  *gin.Engine
	store   models.AppointmentStore
	handler *AppointmentHandler
}

type serverOption func(*AppointmentHandler)

func withStore(s models.AppointmentStore) serverOption {
	return func(h *AppointmentHandler) { h.store = s }
}

func withProducer(p utils.KafkaProducer) serverOption {
	return func(h *AppointmentHandler) { h.kafka = p }
}

func withCache(c utils.RedisClient) serverOption {
	return func(h *AppointmentHandler) { h.cache = c }
}

func withSearch(s utils.ElasticsearchClient) serverOption {
	return func(h *AppointmentHandler) { h.es = s }
}

func newTestServer(uploadDir, staticDir string, opts ...serverOption) *testServer {
	gin.SetMode(gin.TestMode)

	h := NewAppointmentHandler(models.NewMemoryStore(), nil, nil, nil, discardLogger())
	h.now = func() time.Time { return testTime }
	for _, opt := range opts {
		opt(h)
	}

	r := gin.New()
	RegisterRoutes(r, Routes{
		Appointments: h,
		Pages:        NewPageHandler(nil, h.store, uploadDir, discardLogger()),
		Health:       NewHealthHandler(nil, nil),
		StaticDir:    staticDir,
	})
	return &testServer{router: r, store: h.store, handler: h}
}
