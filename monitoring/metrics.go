package monitoring

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)
)

var (
	AppointmentsBooked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "appointments_booked_total",
			Help: "Total appointments successfully booked",
		},
	)

	BookingFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appointment_booking_failures_total",
			Help: "Booking attempts rejected, by reason",
		},
		[]string{"reason"},
	)

	UploadedFiles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "uploaded_files_total",
			Help: "Total files accepted by the upload endpoint",
		},
	)
)

var initOnce sync.Once

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestsTotal)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(AppointmentsBooked)
		prometheus.MustRegister(BookingFailures)
		prometheus.MustRegister(UploadedFiles)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}
