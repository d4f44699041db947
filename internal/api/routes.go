package api

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/patrickwarner/bannerforge/internal/middleware"
	"github.com/patrickwarner/bannerforge/internal/models"
)

const defaultBodyLimit = 20 << 20

// Routes builds the HTTP router.
func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(
		middleware.WithTraceLogger(s.Logger),
		middleware.WithMetrics(s.Metrics),
		middleware.WithAccessLog(s.Logger, s.Sampler),
	)

	r.HandleFunc("/health", s.HealthHandler).Methods("GET")
	r.Handle("/metrics", promhttp.Handler())

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/sizes", s.SizesHandler).Methods("GET")
	api.HandleFunc("/presets", s.PresetsHandler).Methods("GET")
	api.HandleFunc("/stats", s.StatsHandler).Methods("GET")

	api.HandleFunc("/render", s.RenderHandler).Methods("POST")
	api.HandleFunc("/validate", s.ValidateHandler).Methods("POST")
	api.HandleFunc("/export", s.ExportHandler).Methods("POST")
	api.HandleFunc("/exports/{prefix}/{name}", s.DownloadArchiveHandler).Methods("GET")
	api.HandleFunc("/exports/{prefix}/{name}", s.DeleteArchiveHandler).Methods("DELETE")

	api.HandleFunc("/projects", s.ListProjects).Methods("GET")
	api.HandleFunc("/projects", s.CreateProject).Methods("POST")
	api.HandleFunc("/projects/{id}", s.GetProject).Methods("GET")
	api.HandleFunc("/projects/{id}", s.UpdateProject).Methods("PUT")
	api.HandleFunc("/projects/{id}", s.DeleteProject).Methods("DELETE")
	api.HandleFunc("/projects/{id}/open", s.OpenProject).Methods("POST")

	ws := api.PathPrefix("/workspace").Subrouter()
	ws.HandleFunc("", s.GetWorkspace).Methods("GET")
	ws.HandleFunc("/reset", s.ResetWorkspace).Methods("POST")
	ws.HandleFunc("/import", s.ImportVariation).Methods("POST")
	ws.HandleFunc("/commands", s.ExecuteCommands).Methods("POST")
	ws.HandleFunc("/assets", s.UploadAssets).Methods("POST")
	ws.HandleFunc("/export", s.ExportWorkspace).Methods("POST")
	ws.HandleFunc("/variations", s.AddVariation).Methods("POST")
	ws.HandleFunc("/variations/{id}", s.RenameVariation).Methods("PATCH")
	ws.HandleFunc("/variations/{id}", s.RemoveVariation).Methods("DELETE")
	ws.HandleFunc("/variations/{id}/activate", s.ActivateVariation).Methods("PUT")
	ws.HandleFunc("/variations/{id}/project", s.DownloadVariation).Methods("GET")

	return r
}

func (s *Server) logger(r *http.Request) *zap.Logger {
	return middleware.LoggerFromRequest(r, s.Logger)
}

func (s *Server) bodyLimit() int64 {
	if s.Config.MaxUploadBytes > 0 {
		return s.Config.MaxUploadBytes
	}
	return defaultBodyLimit
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, s.bodyLimit()))
}

// decodeState reads a project document from the request body.
func (s *Server) decodeState(w http.ResponseWriter, r *http.Request) (models.AdState, error) {
	data, err := s.readBody(w, r)
	if err != nil {
		return models.AdState{}, err
	}
	return models.DecodeProject(data)
}
