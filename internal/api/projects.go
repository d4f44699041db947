package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/patrickwarner/bannerforge/internal/db"
	"github.com/patrickwarner/bannerforge/internal/models"
)

func (s *Server) projects(w http.ResponseWriter, r *http.Request) (db.ProjectRepository, bool) {
	if s.Projects == nil {
		s.writeError(w, r, fmt.Errorf("project storage: %w", errUnavailable))
		return nil, false
	}
	return s.Projects, true
}

// ListProjects returns saved project summaries, newest first. ?limit= caps the count.
func (s *Server) ListProjects(w http.ResponseWriter, r *http.Request) {
	repo, ok := s.projects(w, r)
	if !ok {
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, r, fmt.Errorf("%w: limit %q", errBadRequest, v))
			return
		}
		limit = n
	}
	list, err := repo.ListProjects(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// CreateProject saves a project document under a new id.
func (s *Server) CreateProject(w http.ResponseWriter, r *http.Request) {
	repo, ok := s.projects(w, r)
	if !ok {
		return
	}
	state, err := s.decodeState(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	pr := &db.Project{Name: state.Name, State: state}
	if err := repo.SaveProject(r.Context(), pr); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger(r).Info("project saved", zap.String("project_id", pr.ID), zap.Int("frames", len(state.Frames)))
	writeJSON(w, http.StatusCreated, pr)
}

// GetProject returns a saved project. With ?download=true the bare project
// document is sent as a file attachment.
func (s *Server) GetProject(w http.ResponseWriter, r *http.Request) {
	repo, ok := s.projects(w, r)
	if !ok {
		return
	}
	pr, err := repo.GetProject(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if download, _ := strconv.ParseBool(r.URL.Query().Get("download")); download {
		s.sendProjectFile(w, r, pr.State)
		return
	}
	writeJSON(w, http.StatusOK, pr)
}

// UpdateProject stores a new revision of a project, creating it when the id is unused.
func (s *Server) UpdateProject(w http.ResponseWriter, r *http.Request) {
	repo, ok := s.projects(w, r)
	if !ok {
		return
	}
	state, err := s.decodeState(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	pr := &db.Project{ID: mux.Vars(r)["id"], Name: state.Name, State: state}
	if err := repo.SaveProject(r.Context(), pr); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pr)
}

// DeleteProject removes a saved project.
func (s *Server) DeleteProject(w http.ResponseWriter, r *http.Request) {
	repo, ok := s.projects(w, r)
	if !ok {
		return
	}
	if err := repo.DeleteProject(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OpenProject loads a saved project into the workspace as a new active variation.
func (s *Server) OpenProject(w http.ResponseWriter, r *http.Request) {
	repo, ok := s.projects(w, r)
	if !ok {
		return
	}
	pr, err := repo.GetProject(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.Editor.Import(pr.State))
}

// sendProjectFile writes state as a downloadable project file.
func (s *Server) sendProjectFile(w http.ResponseWriter, r *http.Request, state models.AdState) {
	doc, err := models.EncodeProject(state)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", models.ProjectFileName(state.Name)))
	_, _ = w.Write(doc)
}
