package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medibot/models"
)

type fakeCache struct {
	mu   sync.Mutex
	data map[string]string
	err  error
}

func (f *fakeCache) GetFromCache(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data[key], nil
}

func (f *fakeCache) SetToCache(_ context.Context, key, value string, _ time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

func (f *fakeCache) Close() error { return nil }

func (f *fakeCache) get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok
}

type fakeIndex struct {
	mu   sync.Mutex
	docs map[string]interface{}
}

func (f *fakeIndex) IndexDocument(_ context.Context, index, id string, document interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[index+"/"+id] = document
	return nil
}

func (f *fakeIndex) Search(context.Context, string, map[string]interface{}) ([]json.RawMessage, error) {
	return nil, nil
}
func (f *fakeIndex) Close() error { return nil }

// chanReader feeds queued messages and returns io.EOF once closed.
type chanReader struct {
	msgs   chan kafka.Message
	closed chan struct{}
	once   sync.Once
}

func newChanReader() *chanReader {
	return &chanReader{msgs: make(chan kafka.Message, 8), closed: make(chan struct{})}
}

func (r *chanReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.msgs:
		return m, nil
	case <-r.closed:
		return kafka.Message{}, io.EOF
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *chanReader) Close() error {
	r.once.Do(func() { close(r.closed) })
	return nil
}

func newTestConsumer(cache *fakeCache, index *fakeIndex, reader messageReader) *AppointmentConsumer {
	c := &AppointmentConsumer{
		reader:   reader,
		logger:   log.New(io.Discard, "", 0),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	if cache != nil {
		c.cache = cache
	}
	if index != nil {
		c.es = index
	}
	return c
}

const testStoreID = "mem-test"

func bookedEvent(t *testing.T, id uint) []byte {
	t.Helper()
	data, err := json.Marshal(models.NewBookedEvent(testStoreID, models.Appointment{
		ID:          id,
		PatientName: "Jane Doe",
		Doctor:      "Dr. Smith",
		Status:      models.StatusConfirmed,
	}))
	require.NoError(t, err)
	return data
}

func TestHandleMessageBooked(t *testing.T) {
	cache := &fakeCache{data: map[string]string{}}
	index := &fakeIndex{docs: map[string]interface{}{}}
	c := newTestConsumer(cache, index, newChanReader())

	require.NoError(t, c.HandleMessage(context.Background(), bookedEvent(t, 4)))

	raw, ok := cache.get(models.AppointmentCacheKey(testStoreID, 4))
	require.True(t, ok)
	var cached models.Appointment
	require.NoError(t, json.Unmarshal([]byte(raw), &cached))
	assert.Equal(t, "Jane Doe", cached.PatientName)

	doc, ok := index.docs["appointments/"+models.AppointmentDocumentID(testStoreID, 4)]
	require.True(t, ok)
	indexed := doc.(models.IndexedAppointment)
	assert.Equal(t, uint(4), indexed.ID)
	assert.Equal(t, testStoreID, indexed.StoreID)
}

func TestHandleMessageWithoutSinks(t *testing.T) {
	c := newTestConsumer(nil, nil, newChanReader())

	assert.NoError(t, c.HandleMessage(context.Background(), bookedEvent(t, 1)))
}

func TestHandleMessageErrors(t *testing.T) {
	c := newTestConsumer(&fakeCache{data: map[string]string{}, err: errors.New("redis down")}, nil, newChanReader())

	assert.Error(t, c.HandleMessage(context.Background(), []byte("{not json")))
	assert.Error(t, c.HandleMessage(context.Background(), bookedEvent(t, 1)))
	assert.NoError(t, c.HandleMessage(context.Background(), []byte(`{"event":"appointment_cancelled"}`)))
}

func TestHandleMessageRequiresStoreID(t *testing.T) {
	cache := &fakeCache{data: map[string]string{}}
	c := newTestConsumer(cache, nil, newChanReader())

	err := c.HandleMessage(context.Background(), []byte(`{"event":"appointment_booked","data":{"id":1,"patientName":"Jane Doe"}}`))

	assert.Error(t, err)
	assert.Empty(t, cache.data)
}

func TestConsumerLoopProcessesUntilStopped(t *testing.T) {
	cache := &fakeCache{data: map[string]string{}}
	reader := newChanReader()
	c := newTestConsumer(cache, nil, reader)

	c.Start(context.Background())
	reader.msgs <- kafka.Message{Value: bookedEvent(t, 1)}
	reader.msgs <- kafka.Message{Value: bookedEvent(t, 2)}

	assert.Eventually(t, func() bool {
		_, ok1 := cache.get(models.AppointmentCacheKey(testStoreID, 1))
		_, ok2 := cache.get(models.AppointmentCacheKey(testStoreID, 2))
		return ok1 && ok2
	}, 2*time.Second, 10*time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		c.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}
}
