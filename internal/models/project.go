package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidProject is returned when a project document cannot be loaded.
// Loading never partially applies a document that fails.
var ErrInvalidProject = errors.New("invalid project file")

var projectNameUnsafe = regexp.MustCompile(`[^a-z0-9]`)

// DecodeProject parses a saved project document. Documents written by older editor
// versions lack timingMode and assetLibrary; both are defaulted. A document without
// a frames field is rejected.
func DecodeProject(data []byte) (AdState, error) {
	var probe struct {
		Frames json.RawMessage `json:"frames"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return AdState{}, fmt.Errorf("%w: %v", ErrInvalidProject, err)
	}
	if len(probe.Frames) == 0 || string(probe.Frames) == "null" {
		return AdState{}, fmt.Errorf("%w: missing frames", ErrInvalidProject)
	}

	var state AdState
	if err := json.Unmarshal(data, &state); err != nil {
		return AdState{}, fmt.Errorf("%w: %v", ErrInvalidProject, err)
	}
	if state.TimingMode == "" {
		state.TimingMode = TimingGlobal
	}
	if state.AssetLibrary == nil {
		state.AssetLibrary = []AssetItem{}
	}
	if state.SizeOverrides == nil {
		state.SizeOverrides = map[string]SizeOverride{}
	}
	if state.SelectedSizes == nil {
		state.SelectedSizes = []string{}
	}
	return state, nil
}

// EncodeProject serializes a variation as an indented project document.
func EncodeProject(state AdState) ([]byte, error) {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode project: %w", err)
	}
	return data, nil
}

// ProjectFileName derives the download name of a saved project from the variation name.
func ProjectFileName(name string) string {
	return projectNameUnsafe.ReplaceAllString(strings.ToLower(name), "_") + ".json"
}
