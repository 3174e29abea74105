package models

const EventAppointmentBooked = "appointment_booked"

// AppointmentEvent is the message published to the appointment events topic.
type AppointmentEvent struct {
	Event   string      `json:"event"`
	Version int         `json:"version"`
	StoreID string      `json:"storeId"`
	Data    Appointment `json:"data"`
}

func NewBookedEvent(storeID string, appointment Appointment) AppointmentEvent {
	return AppointmentEvent{
		Event:   EventAppointmentBooked,
		Version: AppointmentSchemaVersion,
		StoreID: storeID,
		Data:    appointment,
	}
}
