// Package server exposes the batch geocoding pipeline over HTTP: a multipart
// upload endpoint returning the ordered result set, plus health and metrics
// endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aqueduct-geo/geocoder/internal/models"
	"github.com/aqueduct-geo/geocoder/internal/tabular"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// maxUploadBytes bounds the multipart form held in memory. A 1000-row table
// fits comfortably; anything larger is rejected during parsing.
const maxUploadBytes = 10 << 20

// corsMaxAge caches preflight responses for an hour.
const corsMaxAge = 3600

// BatchProcessor resolves a normalized batch of address records into a
// row-aligned, order-preserving result set.
type BatchProcessor interface {
	Process(ctx context.Context, records []models.AddressRecord) ([]models.GeocodeResult, error)
}

// Server handles uploaded tables and replies with geocoded rows.
type Server struct {
	log     *slog.Logger   // Logger for logging request handling
	batch   BatchProcessor // The batch orchestrator
	metrics http.Handler   // Prometheus metrics endpoint handler
}

// rowsResponse is the wire shape of a successful request: a single key
// holding the ordered array of per-row results.
type rowsResponse struct {
	Rows []models.GeocodeResult `json:"rows"`
}

// errorResponse is the wire shape of every validation or fatal error.
type errorResponse struct {
	Error string `json:"error"`
}

// NewServer creates a new Server around the given batch processor.
func NewServer(log *slog.Logger, batch BatchProcessor, metrics http.Handler) *Server {
	return &Server{log: log, batch: batch, metrics: metrics}
}

// Router builds the HTTP routing table, including permissive CORS for
// browser callers and the OPTIONS preflight.
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         corsMaxAge,
	}))

	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(r.Context(), w, http.StatusMethodNotAllowed, "request method ("+r.Method+") not allowed")
	})

	router.Post("/geocode", s.handleGeocode)
	router.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		router.Method(http.MethodGet, "/metrics", s.metrics)
	}

	return router
}

// handleGeocode ingests one uploaded table and replies with the ordered
// result set. Validation failures abort the whole request before any
// network activity; after that point every row completes with a result.
func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(ctx, w, http.StatusBadRequest, "no file provided")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(ctx, w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	extension := fileExtension(header.Filename)
	table, err := tabular.Decode(file, extension)
	if err != nil {
		if errors.Is(err, tabular.ErrUnsupportedExtension) {
			s.writeError(ctx, w, http.StatusBadRequest, extension+" is not an allowed file extension")
			return
		}
		s.log.ErrorContext(ctx, "Failed to decode uploaded table", "filename", header.Filename, "error", err)
		s.writeError(ctx, w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	s.log.InfoContext(ctx, "Table decoded", "filename", header.Filename, "rows", len(table.Rows))

	records, err := tabular.Normalize(table)
	if err != nil {
		s.writeError(ctx, w, http.StatusBadRequest, validationMessage(err))
		return
	}

	results, err := s.batch.Process(ctx, records)
	if err != nil {
		s.log.ErrorContext(ctx, "Batch processing failed", "error", err)
		s.writeError(ctx, w, http.StatusInternalServerError, "failed to process batch")
		return
	}

	s.writeJSON(ctx, w, http.StatusOK, rowsResponse{Rows: results})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.ErrorContext(ctx, "Failed to write reply", "error", err)
	}
}

func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	s.writeJSON(ctx, w, status, errorResponse{Error: message})
}

// validationMessage unwraps normalization errors to their stable sentinel
// text so callers see a clean, human-readable message.
func validationMessage(err error) string {
	for _, sentinel := range []error{
		tabular.ErrMissingAddressColumn,
		tabular.ErrEmptyTable,
		tabular.ErrTooManyRows,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

// fileExtension returns the lowercased extension of the uploaded filename
// without the leading dot.
func fileExtension(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[idx+1:])
}
