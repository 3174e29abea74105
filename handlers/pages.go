package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"medibot/models"
	"medibot/monitoring"
)

const (
	portalTemplate       = "portal.html"
	appointmentsTemplate = "appointments.html"
)

// PageHandler serves the HTML pages and the record upload endpoint.
type PageHandler struct {
	templates *template.Template
	store     models.AppointmentStore
	uploadDir string
	logger    *log.Logger
}

// LoadTemplates parses every *.html file in dir.
func LoadTemplates(dir string) (*template.Template, error) {
	tmpl, err := template.ParseGlob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("failed to load templates from %s: %w", dir, err)
	}
	return tmpl, nil
}

// NewPageHandler builds the page handler. templates may be nil, in which case
// every page falls back to a plain-text message.
func NewPageHandler(templates *template.Template, store models.AppointmentStore, uploadDir string, logger *log.Logger) *PageHandler {
	return &PageHandler{
		templates: templates,
		store:     store,
		uploadDir: uploadDir,
		logger:    logger,
	}
}

func (h *PageHandler) Home(c *gin.Context) {
	h.render(c, portalTemplate, nil)
}

func (h *PageHandler) AppointmentsPage(c *gin.Context) {
	appointments, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Printf("Error listing appointments for page: %v", err)
	}
	h.render(c, appointmentsTemplate, gin.H{"Appointments": appointments})
}

func (h *PageHandler) render(c *gin.Context, name string, data interface{}) {
	if h.templates != nil {
		var buf bytes.Buffer
		err := h.templates.ExecuteTemplate(&buf, name, data)
		if err == nil {
			c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
			return
		}
		h.logger.Printf("Failed to render %s: %v", name, err)
	}
	c.String(http.StatusOK, fallbackText(name))
}

func fallbackText(name string) string {
	return fmt.Sprintf("Medibot Backend Running. Place %s in the templates directory to serve this page.", name)
}

func (h *PageHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	filename := filepath.Base(file.Filename)
	if filename == "." || filename == string(filepath.Separator) || filename == ".." {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file name"})
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		h.logger.Printf("Failed to create upload directory: %v", err)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		return
	}

	if err := c.SaveUploadedFile(file, filepath.Join(h.uploadDir, filename)); err != nil {
		h.logger.Printf("Failed to save uploaded file %s: %v", filename, err)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		return
	}

	monitoring.UploadedFiles.Inc()
	h.logger.Printf("Stored upload %s", filename)
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("%s uploaded successfully!", filename)})
}
