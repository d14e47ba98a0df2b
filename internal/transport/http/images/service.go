package images

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"imaged/internal/domain/ingest"
	"imaged/internal/platform/config"
	"imaged/internal/platform/errors"
	"imaged/internal/platform/logging"
	"imaged/internal/platform/storage"
	httptransport "imaged/internal/transport/http"
)

// Service exposes the image ingestion endpoints over HTTP.
type Service struct {
	logger      *logging.Logger
	config      *config.Config
	coordinator *ingest.Coordinator
	store       *storage.Writer
}

// NewService creates the images HTTP service.
func NewService(
	cfg *config.Config,
	logger *logging.Logger,
	coordinator *ingest.Coordinator,
	store *storage.Writer,
) (*Service, error) {
	if cfg == nil {
		return nil, errors.New(errors.KindConfig, "images.new", "config is required")
	}
	if logger == nil {
		return nil, errors.New(errors.KindConfig, "images.new", "logger is required")
	}
	if coordinator == nil {
		return nil, errors.New(errors.KindConfig, "images.new", "coordinator is required")
	}
	if store == nil {
		return nil, errors.New(errors.KindConfig, "images.new", "storage writer is required")
	}

	return &Service{
		logger:      logger,
		config:      cfg,
		coordinator: coordinator,
		store:       store,
	}, nil
}

// Register mounts the image routes on the router group.
func (s *Service) Register(ctx context.Context, router *gin.RouterGroup) error {
	router.GET("/images", s.handleGet)
	router.POST("/images", s.handlePost)

	s.logger.InfoTag("HTTP", "images routes registered")
	return nil
}

// handleGet lists the stored image filenames, sorted.
func (s *Service) handleGet(c *gin.Context) {
	names, err := s.store.List()
	if err != nil {
		s.logger.ErrorTag("HTTP", "listing uploads failed: %v", err)
		httptransport.RespondError(c, http.StatusInternalServerError,
			string(ingest.ReasonStorageUnavailable), err.Error())
		return
	}
	c.JSON(http.StatusOK, names)
}

// handlePost classifies the request by content type, extracts descriptors,
// and runs them through the ingestion coordinator. The response is always a
// per-item result array once the body could be parsed.
func (s *Service) handlePost(c *gin.Context) {
	var (
		entries []ingest.Entry
		err     error
	)

	switch c.ContentType() {
	case "multipart/form-data":
		entries, err = s.extractMultipart(c)
	case "application/json":
		entries, err = s.parseJSONBatch(c)
	default:
		httptransport.RespondError(c, http.StatusUnsupportedMediaType,
			string(ingest.ReasonMalformedRequest),
			"content type must be multipart/form-data or application/json")
		return
	}
	if err != nil {
		s.logger.WarnTag("HTTP", "request body rejected: %v", err)
		httptransport.RespondError(c, http.StatusBadRequest,
			string(ingest.ReasonMalformedRequest), err.Error())
		return
	}

	results, err := s.coordinator.IngestBatch(c.Request.Context(), entries)
	if err != nil {
		s.logger.ErrorTag("HTTP", "batch aborted: %v", err)
		httptransport.RespondError(c, http.StatusInternalServerError,
			string(ingest.ReasonStorageUnavailable), err.Error())
		return
	}

	c.JSON(http.StatusOK, toResponses(results))
}

func (s *Service) extractMultipart(c *gin.Context) ([]ingest.Entry, error) {
	reader, err := c.Request.MultipartReader()
	if err != nil {
		return nil, err
	}
	return ingest.ExtractMultipart(reader, s.config.Upload.MaxFileSize)
}

func (s *Service) parseJSONBatch(c *gin.Context) ([]ingest.Entry, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, err
	}
	return ingest.ParseBatch(body)
}
