package models

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// AppointmentStore holds appointments in creation order.
type AppointmentStore interface {
	Append(ctx context.Context, appointment *Appointment) error
	List(ctx context.Context) ([]Appointment, error)
	Get(ctx context.Context, id uint) (*Appointment, error)
	// StoreID names the identifier space of the store. Caches and search
	// documents keyed by appointment ID must include it.
	StoreID() string
	Close() error
}

// MemoryStore keeps appointments for the lifetime of the process.
type MemoryStore struct {
	id           string
	mu           sync.Mutex
	appointments []Appointment
	nextID       uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{id: "mem-" + uuid.NewString(), nextID: 1}
}

// Append assigns the next identifier to appointment and stores a copy of it.
func (s *MemoryStore) Append(_ context.Context, appointment *Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	appointment.ID = s.nextID
	s.nextID++
	s.appointments = append(s.appointments, *appointment)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Appointment, len(s.appointments))
	copy(out, s.appointments)
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, id uint) (*Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// IDs are dense and start at 1.
	if id == 0 || int(id) > len(s.appointments) {
		return nil, ErrNotFound
	}
	appointment := s.appointments[id-1]
	return &appointment, nil
}

// StoreID is unique per MemoryStore, since its IDs start at 1 again on every
// process start.
func (s *MemoryStore) StoreID() string {
	return s.id
}

func (s *MemoryStore) Close() error {
	return nil
}
