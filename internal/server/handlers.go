package server

import (
	"bytes"
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/leslieo2/go-status-board/internal/constants"
	"github.com/leslieo2/go-status-board/internal/observability"
	"github.com/leslieo2/go-status-board/internal/render"
	"github.com/leslieo2/go-status-board/internal/server/middleware"
)

// statusHandler serves the latest probe results in board order
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	_, span := s.tracer.StartSpan(r.Context(), "status_snapshot")
	defer span.End()

	snapshot := s.store.Snapshot()
	body, err := json.Marshal(snapshot)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("Failed to encode status response", zap.Error(err))
		middleware.WriteError(w, http.StatusInternalServerError, constants.ErrorCodeInternal, "failed to encode status")
		return
	}
	span.SetAttributes(attribute.Int("status.services", snapshot.Len()))

	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// pageHandler refreshes the board once from the status endpoint and renders it
func (s *Server) pageHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.StartSpan(r.Context(), "render_page",
		attribute.String("status.url", s.client.URL()),
	)
	defer span.End()

	doc := render.NewBoard()
	err := s.renderer.Refresh(ctx, doc)
	s.metrics.RecordRefresh(err)
	if err != nil {
		// The page still renders with the error row
		span.RecordError(err)
		span.SetStatus(codes.Error, "status endpoint unavailable")
	}

	var buf bytes.Buffer
	if err := s.page.Write(&buf, doc); err != nil {
		s.logger.Error("Failed to render page", zap.Error(err))
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set(constants.HeaderContentType, constants.ContentTypeHTML)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// openAPIHandler serves the document describing the status endpoint
func (s *Server) openAPIHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeYAML)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(s.spec.Raw())
}

// healthHandler handles health check requests
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	_, span := s.tracer.StartSpan(r.Context(), "health_check")
	defer span.End()

	health := s.health.Status(map[string]interface{}{
		"services": s.store.Len(),
		"polled":   s.store.Polled(),
	})
	healthy := health.Status == observability.HealthStatusHealthy
	s.metrics.SetHealthStatus(healthy)

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	s.sendJSON(w, code, health)

	s.logger.Debug("Health check completed",
		zap.String("status", health.Status),
		zap.String("remote_addr", r.RemoteAddr),
	)
}

// readinessHandler reports ready once every service has been probed
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	_, span := s.tracer.StartSpan(r.Context(), "readiness_check")
	defer span.End()

	ready := s.store.Polled()
	if ready {
		s.sendJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	} else {
		s.sendJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
	}

	s.logger.Debug("Readiness check completed", zap.Bool("ready", ready))
}

func (s *Server) sendJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
