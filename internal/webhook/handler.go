// Package webhook receives the asynchronous LearningBox callback carrying a
// generated SCORM package and uploads it to the mapped Rise Up step.
package webhook

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"scorm-bridge/internal/archive"
)

// The callback body is form-encoded with exactly one module record; only
// index 0 is read.
const (
	fieldCourseID = "modules[0][id]"
	fieldZip      = "modules[0][zip]"
)

// Failure taxonomy for one delivery. The status codes attached to each are
// chosen to steer the upstream retry behavior, see Handle.
var (
	ErrMalformedRequest = errors.New("missing required data fields")
	ErrMappingNotFound  = errors.New("mapping not found")
	ErrInvalidEncoding  = errors.New("invalid base64 data")
	ErrUpstreamUpload   = errors.New("failed to upload SCORM to Rise Up")
)

// Uploader is the slice of the Rise Up client the handler needs.
type Uploader interface {
	UploadStepContent(ctx context.Context, stepID string, content []byte, filename string) error
}

// Resolver is the slice of the mapping store the handler needs.
type Resolver interface {
	Get(sourceID string) (string, bool)
}

type Handler struct {
	Store  Resolver
	Target Uploader
	Log    zerolog.Logger

	// Archiver keeps a best-effort copy of every uploaded package.
	// Nil disables archival.
	Archiver *archive.Archiver
}

// Handle processes one delivery: parse → resolve → decode → upload.
//
// Status mapping: missing fields and undecodable payloads are the caller's
// fault (400, no point retrying); an unresolvable-but-valid delivery is
// acknowledged with 200 so LearningBox does not retry a request this system
// can never act on; an upload failure is this system's side (502, retry
// welcome).
func (h *Handler) Handle(c *gin.Context) {
	log := h.Log.With().Str("delivery", uuid.NewString()).Logger()
	log.Info().Str("path", c.Request.URL.Path).Msg("webhook received")

	courseID := strings.TrimSpace(c.PostForm(fieldCourseID))
	zipB64 := c.PostForm(fieldZip)
	if courseID == "" || zipB64 == "" {
		log.Error().Str("course", courseID).Bool("has_zip", zipB64 != "").
			Msg("webhook delivery missing required fields")
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": ErrMalformedRequest.Error()})
		return
	}
	log = log.With().Str("course", courseID).Logger()

	stepID, ok := h.Store.Get(courseID)
	if !ok {
		// Structurally valid request this system cannot act on. A 4xx/5xx
		// would make LearningBox retry indefinitely; acknowledge instead and
		// leave an operational error for manual investigation.
		log.Error().Msg("no Rise Up step found in mapping for course")
		c.JSON(http.StatusOK, gin.H{"status": "acknowledged_error", "message": ErrMappingNotFound.Error()})
		return
	}
	log = log.With().Str("step", stepID).Logger()

	content, err := base64.StdEncoding.DecodeString(zipB64)
	if err != nil {
		log.Error().Err(err).Msg("could not decode base64 SCORM payload")
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": ErrInvalidEncoding.Error()})
		return
	}
	log.Info().Int("bytes", len(content)).Msg("decoded SCORM package")

	filename := fmt.Sprintf("lb_%s_scorm.zip", courseID)
	if err := h.Target.UploadStepContent(c.Request.Context(), stepID, content, filename); err != nil {
		log.Error().Err(err).Msg("SCORM upload to Rise Up failed")
		c.JSON(http.StatusBadGateway, gin.H{"status": "error", "message": ErrUpstreamUpload.Error()})
		return
	}

	if h.Archiver != nil {
		// Detached from the delivery: the acknowledgment must not wait on a
		// slow sink, and the request context dies with the response.
		go h.Archiver.Keep(context.Background(), filename, content)
	}

	log.Info().Msg("SCORM uploaded to Rise Up")
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "SCORM uploaded to Rise Up"})
}
