package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/patrickwarner/bannerforge/internal/analytics"
	"github.com/patrickwarner/bannerforge/internal/editor"
	"github.com/patrickwarner/bannerforge/internal/models"
)

// maxUploadMemory is how much of a multipart form is held in memory before
// spilling to temporary files.
const maxUploadMemory = 8 << 20

type workspaceView struct {
	ActiveID   string           `json:"activeId"`
	Variations []models.AdState `json:"variations"`
}

func (s *Server) workspace() workspaceView {
	return workspaceView{ActiveID: s.Editor.ActiveID(), Variations: s.Editor.Variations()}
}

// GetWorkspace returns every variation and the active id.
func (s *Server) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.workspace())
}

// ResetWorkspace discards all variations.
func (s *Server) ResetWorkspace(w http.ResponseWriter, r *http.Request) {
	s.Editor.Reset()
	writeJSON(w, http.StatusOK, s.workspace())
}

// ImportVariation adds a project document as a new active variation.
func (s *Server) ImportVariation(w http.ResponseWriter, r *http.Request) {
	data, err := s.readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := s.Editor.LoadProject(data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// ExecuteCommands applies a JSON array of edit commands to the active variation.
func (s *Server) ExecuteCommands(w http.ResponseWriter, r *http.Request) {
	data, err := s.readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var cmds []editor.Command
	if err := json.Unmarshal(data, &cmds); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	v, err := s.Editor.Execute(cmds...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// AddVariation duplicates the active variation.
func (s *Server) AddVariation(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, s.Editor.AddVariation())
}

// RenameVariation sets a variation's name from {"name": "..."}.
func (s *Server) RenameVariation(w http.ResponseWriter, r *http.Request) {
	data, err := s.readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &body); err != nil || body.Name == "" {
		s.writeError(w, r, fmt.Errorf("%w: a non-empty name is required", errBadRequest))
		return
	}
	id := mux.Vars(r)["id"]
	if err := s.Editor.RenameVariation(id, body.Name); err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := s.Editor.Variation(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// RemoveVariation deletes a variation. The last one cannot be removed.
func (s *Server) RemoveVariation(w http.ResponseWriter, r *http.Request) {
	if err := s.Editor.RemoveVariation(mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.workspace())
}

// ActivateVariation switches the variation being edited.
func (s *Server) ActivateVariation(w http.ResponseWriter, r *http.Request) {
	if err := s.Editor.SetActiveVariation(mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.workspace())
}

// DownloadVariation sends one variation as a project file.
func (s *Server) DownloadVariation(w http.ResponseWriter, r *http.Request) {
	v, err := s.Editor.Variation(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.sendProjectFile(w, r, v)
}

// UploadAssets encodes the "files" of a multipart form into the active
// variation's library. The optional "category" field defaults to general.
func (s *Server) UploadAssets(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.bodyLimit())
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if !errors.As(err, &tooLarge) {
			err = fmt.Errorf("%w: %v", errBadRequest, err)
		}
		s.writeError(w, r, err)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	category := models.AssetCategory(r.FormValue("category"))
	if category == "" {
		category = models.CategoryGeneral
	}
	if !category.Valid() {
		s.writeError(w, r, fmt.Errorf("%w: unknown category %q", errBadRequest, category))
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		s.writeError(w, r, fmt.Errorf("%w: no files uploaded", errBadRequest))
		return
	}

	uploads := make([]editor.Upload, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		uploads = append(uploads, editor.Upload{Name: fh.Filename, Data: data})
	}

	res, err := s.Editor.IngestAssets(r.Context(), s.Encoder, uploads, category, s.encoderOptions())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	for range res.Added {
		s.Metrics.IncrementAssetUploads("ok")
	}
	for _, f := range res.Failed {
		s.Metrics.IncrementAssetUploads("error")
		s.logger(r).Warn("asset rejected", zap.String("file", f.Name), zap.String("error", f.Error))
	}
	outcome := "ok"
	if len(res.Failed) > 0 {
		outcome = "partial"
		if len(res.Added) == 0 {
			outcome = "error"
		}
	}
	s.record(r.Context(), analytics.Event{
		EventType:   analytics.EventUpload,
		VariationID: res.Variation.ID,
		Units:       int32(len(res.Added)),
		Outcome:     outcome,
		Attributes:  map[string]string{"category": string(category)},
	})

	status := http.StatusCreated
	if len(res.Added) == 0 {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, res)
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}
