package models

import (
	"errors"
	"fmt"
	"time"
)

// AppointmentSchemaVersion identifies the shape of Appointment shared by the
// in-memory store, the postgres table and the event payloads.
const AppointmentSchemaVersion = 1

const (
	StatusConfirmed = "Confirmed"
	StatusScheduled = "Scheduled"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrMissingFields = errors.New("missing required appointment fields")
)

type Appointment struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	PatientID    *uint     `json:"patientId,omitempty" gorm:"index"`
	PatientName  string    `json:"patientName" gorm:"size:200"`
	PatientEmail string    `json:"patientEmail" gorm:"size:120"`
	Doctor       string    `json:"doctor" gorm:"column:doctor_name;size:100;not null"`
	Date         string    `json:"date" gorm:"column:appointment_date;not null"`
	Time         string    `json:"time" gorm:"column:appointment_time;not null"`
	Symptoms     string    `json:"symptoms,omitempty" gorm:"size:500"`
	Status       string    `json:"status" gorm:"size:50;default:Scheduled"`
	BookedAt     time.Time `json:"booked_at"`
}

// BookingForm is the form submitted by the portal's appointment modal.
type BookingForm struct {
	PatientName  string `form:"patientName" binding:"required"`
	PatientEmail string `form:"patientEmail" binding:"required"`
	Doctor       string `form:"doctorSelect" binding:"required"`
	Date         string `form:"appointmentDate" binding:"required"`
	Time         string `form:"appointmentTime" binding:"required"`
}

// NewAppointment builds a confirmed appointment from a bound form. The ID is
// left zero for the store to assign.
func NewAppointment(form BookingForm, bookedAt time.Time) *Appointment {
	return &Appointment{
		PatientName:  form.PatientName,
		PatientEmail: form.PatientEmail,
		Doctor:       form.Doctor,
		Date:         form.Date,
		Time:         form.Time,
		Status:       StatusConfirmed,
		BookedAt:     bookedAt,
	}
}

// AppointmentCacheKey is the Redis key of an appointment. IDs restart with
// every memory store, so keys are scoped to the store that assigned them.
func AppointmentCacheKey(storeID string, id uint) string {
	return fmt.Sprintf("appointment:%s:%d", storeID, id)
}

// AppointmentDocumentID is the Elasticsearch document ID of an appointment.
func AppointmentDocumentID(storeID string, id uint) string {
	return fmt.Sprintf("%s-%d", storeID, id)
}

// IndexedAppointment is the search document: the appointment plus the store
// it belongs to, used to filter out documents from other store instances.
type IndexedAppointment struct {
	Appointment
	StoreID string `json:"storeId"`
}
