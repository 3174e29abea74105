package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"medibot/models"
	"medibot/monitoring"
	"medibot/utils"
)

const (
	msgBooked        = "Appointment booked successfully!"
	msgMissingFields = "Missing required appointment fields."
	msgBookingFailed = "An internal server error occurred during booking."
	msgListFailed    = "An internal server error occurred while listing appointments."
	msgNotFound      = "Appointment not found."
	msgInvalidID     = "Invalid appointment ID."
	msgQueryRequired = "Query parameter q is required."
	msgSearchFailed  = "An internal server error occurred during search."

	appointmentCacheTTL = 24 * time.Hour
)

type AppointmentHandler struct {
	store  models.AppointmentStore
	kafka  utils.KafkaProducer
	cache  utils.RedisClient
	es     utils.ElasticsearchClient
	logger *log.Logger
	now    func() time.Time

	publishing sync.WaitGroup
}

// NewAppointmentHandler wires the booking and listing endpoints. kafka, cache
// and es may be nil when the corresponding integration is not configured.
func NewAppointmentHandler(
	store models.AppointmentStore,
	kafka utils.KafkaProducer,
	cache utils.RedisClient,
	es utils.ElasticsearchClient,
	logger *log.Logger,
) *AppointmentHandler {
	return &AppointmentHandler{
		store:  store,
		kafka:  kafka,
		cache:  cache,
		es:     es,
		logger: logger,
		now:    time.Now,
	}
}

func (h *AppointmentHandler) SearchEnabled() bool {
	return h.es != nil
}

// bindBookingForm reads the booking fields from a urlencoded or multipart
// body. It returns models.ErrMissingFields when a field is absent or empty;
// any other error means the body could not be parsed.
func bindBookingForm(c *gin.Context) (models.BookingForm, error) {
	var form models.BookingForm
	if err := c.ShouldBindWith(&form, binding.Form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return form, models.ErrMissingFields
		}
		return form, fmt.Errorf("failed to parse booking form: %w", err)
	}
	return form, nil
}

func (h *AppointmentHandler) BookAppointment(c *gin.Context) {
	form, err := bindBookingForm(c)
	if errors.Is(err, models.ErrMissingFields) {
		monitoring.BookingFailures.WithLabelValues("validation").Inc()
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": msgMissingFields,
		})
		return
	}
	if err != nil {
		h.bookingFailed(c, err)
		return
	}

	ctx := c.Request.Context()
	appointment := models.NewAppointment(form, h.now())
	if err := h.store.Append(ctx, appointment); err != nil {
		h.bookingFailed(c, fmt.Errorf("failed to store appointment: %w", err))
		return
	}

	h.logger.Printf("New appointment booked: %+v", *appointment)
	monitoring.AppointmentsBooked.Inc()

	switch {
	case h.kafka != nil:
		h.publishing.Add(1)
		go func(a models.Appointment) {
			defer h.publishing.Done()
			h.publishBooked(a)
		}(*appointment)
	case h.es != nil:
		// Without Kafka there is no consumer to index the booking.
		h.indexAppointment(ctx, appointment)
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":      "success",
		"message":     msgBooked,
		"appointment": appointment,
	})
}

// bookingFailed logs the cause and answers with an opaque 500.
func (h *AppointmentHandler) bookingFailed(c *gin.Context, err error) {
	h.logger.Printf("Error during appointment booking: %v", err)
	monitoring.BookingFailures.WithLabelValues("internal").Inc()
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"status":  "error",
		"message": msgBookingFailed,
	})
}

func (h *AppointmentHandler) ListAppointments(c *gin.Context) {
	appointments, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Printf("Error listing appointments: %v", err)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": msgListFailed})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "success",
		"appointments": appointments,
	})
}

func (h *AppointmentHandler) GetAppointment(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": msgInvalidID})
		return
	}

	ctx := c.Request.Context()
	if cached, ok := h.fromCache(ctx, uint(id)); ok {
		c.JSON(http.StatusOK, gin.H{"status": "success", "appointment": cached})
		return
	}

	appointment, err := h.store.Get(ctx, uint(id))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": msgNotFound})
			return
		}
		h.logger.Printf("Error loading appointment %d: %v", id, err)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": msgListFailed})
		return
	}

	h.toCache(ctx, appointment)
	c.JSON(http.StatusOK, gin.H{"status": "success", "appointment": appointment})
}

func (h *AppointmentHandler) SearchAppointments(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": msgQueryRequired})
		return
	}

	hits, err := h.es.Search(c.Request.Context(), utils.AppointmentsIndex, utils.AppointmentSearchQuery(q, h.store.StoreID()))
	if err != nil {
		h.logger.Printf("Error searching appointments: %v", err)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": msgSearchFailed})
		return
	}

	appointments := make([]models.Appointment, 0, len(hits))
	for _, hit := range hits {
		var a models.Appointment
		if err := json.Unmarshal(hit, &a); err != nil {
			h.logger.Printf("Skipping malformed search hit: %v", err)
			continue
		}
		appointments = append(appointments, a)
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "appointments": appointments})
}

// Wait blocks until every in-flight Kafka publish has finished. Call it
// before closing the producer.
func (h *AppointmentHandler) Wait() {
	h.publishing.Wait()
}

func (h *AppointmentHandler) fromCache(ctx context.Context, id uint) (*models.Appointment, bool) {
	if h.cache == nil {
		return nil, false
	}
	raw, err := h.cache.GetFromCache(ctx, models.AppointmentCacheKey(h.store.StoreID(), id))
	if err != nil {
		if !utils.IsCacheMiss(err) {
			h.logger.Printf("Failed to read appointment %d from cache: %v", id, err)
		}
		return nil, false
	}
	var appointment models.Appointment
	if err := json.Unmarshal([]byte(raw), &appointment); err != nil {
		h.logger.Printf("Discarding malformed cache entry for appointment %d: %v", id, err)
		return nil, false
	}
	return &appointment, true
}

func (h *AppointmentHandler) toCache(ctx context.Context, appointment *models.Appointment) {
	if h.cache == nil {
		return
	}
	data, err := json.Marshal(appointment)
	if err != nil {
		h.logger.Printf("Failed to marshal appointment for cache: %v", err)
		return
	}
	if err := h.cache.SetToCache(ctx, models.AppointmentCacheKey(h.store.StoreID(), appointment.ID), string(data), appointmentCacheTTL); err != nil {
		h.logger.Printf("Failed to cache appointment %d: %v", appointment.ID, err)
	}
}

func (h *AppointmentHandler) publishBooked(appointment models.Appointment) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	event := models.NewBookedEvent(h.store.StoreID(), appointment)
	key := strconv.FormatUint(uint64(appointment.ID), 10)
	if err := utils.SendJSON(ctx, h.kafka, utils.AppointmentEventsTopic, key, event); err != nil {
		h.logger.Printf("Failed to publish booking %d: %v", appointment.ID, err)
	}
}

func (h *AppointmentHandler) indexAppointment(ctx context.Context, appointment *models.Appointment) {
	storeID := h.store.StoreID()
	doc := models.IndexedAppointment{Appointment: *appointment, StoreID: storeID}
	if err := h.es.IndexDocument(ctx, utils.AppointmentsIndex, models.AppointmentDocumentID(storeID, appointment.ID), doc); err != nil {
		h.logger.Printf("Failed to index appointment %d: %v", appointment.ID, err)
	}
}
