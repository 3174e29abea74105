package models

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PatientRepository manages the persistent patient records and the
// appointments that belong to them.
type PatientRepository interface {
	CreatePatient(ctx context.Context, patient *Patient) error
	GetPatientByID(ctx context.Context, id uint) (*Patient, error)
	DeletePatient(ctx context.Context, id uint) error
	AddAppointment(ctx context.Context, patientID uint, appointment *Appointment) error
}

type PostgresRepository struct {
	db *gorm.DB
}

var (
	_ AppointmentStore  = (*PostgresRepository)(nil)
	_ PatientRepository = (*PostgresRepository)(nil)
)

func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&Patient{}, &Appointment{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) Append(ctx context.Context, appointment *Appointment) error {
	if err := r.db.WithContext(ctx).Create(appointment).Error; err != nil {
		return fmt.Errorf("failed to insert appointment: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]Appointment, error) {
	appointments := []Appointment{}
	if err := r.db.WithContext(ctx).Order("id").Find(&appointments).Error; err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id uint) (*Appointment, error) {
	var appointment Appointment
	if err := r.db.WithContext(ctx).First(&appointment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &appointment, nil
}

// StoreID is fixed: the serial column never reuses IDs across restarts.
func (r *PostgresRepository) StoreID() string {
	return "pg"
}

func (r *PostgresRepository) CreatePatient(ctx context.Context, patient *Patient) error {
	return r.db.WithContext(ctx).Create(patient).Error
}

func (r *PostgresRepository) GetPatientByID(ctx context.Context, id uint) (*Patient, error) {
	var patient Patient
	err := r.db.WithContext(ctx).
		Preload("Appointments", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&patient, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &patient, nil
}

// DeletePatient removes the patient; the foreign key constraint removes its
// appointments.
func (r *PostgresRepository) DeletePatient(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&Patient{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) AddAppointment(ctx context.Context, patientID uint, appointment *Appointment) error {
	appointment.PatientID = &patientID
	if appointment.Status == "" {
		appointment.Status = StatusScheduled
	}
	return r.Append(ctx, appointment)
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *PostgresRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
