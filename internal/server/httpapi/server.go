// Package httpapi exposes the workspace operations as a JSON HTTP API. It
// translates requests into service calls and service errors into the stable
// error taxonomy; no business rules live here.
package httpapi

import (
	"database/sql"
	"net/http"

	"github.com/deliverhub/deliverhub/internal/logging"
	"github.com/deliverhub/deliverhub/internal/server/metrics"
	"github.com/deliverhub/deliverhub/internal/server/services"
)

// Server holds the wired services and builds the route table.
type Server struct {
	db      *sql.DB
	secret  []byte
	logger  logging.Logger
	metrics *metrics.Metrics

	projects *services.ProjectService
	folders  *services.FolderService
	catalog  *services.CatalogService
	uploads  *services.UploadService
}

func NewServer(db *sql.DB, secret []byte, logger logging.Logger, m *metrics.Metrics,
	projects *services.ProjectService, folders *services.FolderService,
	catalog *services.CatalogService, uploads *services.UploadService) *Server {
	return &Server{
		db: db, secret: secret, logger: logger, metrics: m,
		projects: projects, folders: folders, catalog: catalog, uploads: uploads,
	}
}

// Handler builds the full route table. Everything under /api requires a
// bearer token; /healthz and /metrics are open.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", s.metrics.Handler())

	s.route(mux, "POST /api/projects", s.handleCreateProject)
	s.route(mux, "GET /api/projects", s.handleListProjects)
	s.route(mux, "GET /api/projects/{id}", s.handleGetProject)
	s.route(mux, "PATCH /api/projects/{id}", s.handleUpdateProject)
	s.route(mux, "DELETE /api/projects/{id}", s.handleDeleteProject)
	s.route(mux, "PUT /api/projects/{id}/staff", s.handleSetStaff)
	s.route(mux, "POST /api/projects/{id}/submit-completion", s.handleSubmitCompletion)
	s.route(mux, "POST /api/projects/{id}/notify-completion", s.handleNotifyCompletion)

	s.route(mux, "GET /api/projects/{id}/folders", s.handleListFolders)
	s.route(mux, "POST /api/projects/{id}/folders", s.handleCreateFolder)

	s.route(mux, "GET /api/projects/{id}/items/{kind}", s.handleListItems)
	s.route(mux, "POST /api/items/{kind}/{id}/move", s.handleMoveItem)
	s.route(mux, "DELETE /api/items/{kind}/{id}", s.handleDeleteItem)
	s.route(mux, "GET /api/items/{kind}/{id}/stream-url", s.handleStreamURL)

	s.route(mux, "POST /api/uploads/initiate", s.handleInitiateUpload)
	s.route(mux, "POST /api/uploads/complete", s.handleCompleteUpload)
	s.route(mux, "POST /api/uploads/abort", s.handleAbortUpload)

	return mux
}

// route registers an authenticated, instrumented handler.
func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, withMetrics(s.metrics, pattern, withPrincipal(s.secret, h)))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.PingContext(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
