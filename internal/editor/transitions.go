// Package editor holds the editable banner state: every mutation is a pure
// transition from one variation to a new one, applied through a copy-on-write Store.
package editor

import (
	"errors"
	"fmt"
	"slices"

	"github.com/patrickwarner/bannerforge/internal/models"
)

// Transition maps a variation to its next version. Transitions never modify their
// input; they operate on a deep copy.
type Transition func(models.AdState) models.AdState

// ErrLastFrame is returned when removing the only remaining frame.
var ErrLastFrame = errors.New("a variation needs at least one frame")

// Direction moves a frame one position in the sequence.
type Direction string

const (
	Left  Direction = "left"
	Right Direction = "right"
)

// CopyField names a text field of a frame.
type CopyField string

const (
	CopyHeadline CopyField = "headline"
	CopySubline  CopyField = "subline"
	CopyCTA      CopyField = "cta"
)

func edit(fn func(s *models.AdState)) Transition {
	return func(s models.AdState) models.AdState {
		next := s.Clone()
		fn(&next)
		return next
	}
}

// editActiveFrame applies fn to the frame currently being edited.
func editActiveFrame(fn func(f *models.Frame)) Transition {
	return edit(func(s *models.AdState) {
		if i := s.FrameIndex(s.ActiveFrameID); i >= 0 {
			fn(&s.Frames[i])
		}
	})
}

// Chain applies transitions in order.
func Chain(ts ...Transition) Transition {
	return func(s models.AdState) models.AdState {
		for _, t := range ts {
			s = t(s)
		}
		return s
	}
}

// AddFrame appends a default frame and makes it active.
func AddFrame(id string) Transition {
	return edit(func(s *models.AdState) {
		s.Frames = append(s.Frames, models.NewDefaultFrame(id))
		s.ActiveFrameID = id
		s.AnimationKey++
	})
}

// DuplicateFrame inserts a copy of frame srcID right after it and makes the copy active.
func DuplicateFrame(srcID, newID string) Transition {
	return edit(func(s *models.AdState) {
		i := s.FrameIndex(srcID)
		if i < 0 {
			return
		}
		dup := s.Frames[i]
		if dup.Duration != nil {
			d := *dup.Duration
			dup.Duration = &d
		}
		dup.ID = newID
		s.Frames = slices.Insert(s.Frames, i+1, dup)
		s.ActiveFrameID = newID
		s.AnimationKey++
	})
}

// CheckRemoveFrame reports why RemoveFrame(id) would leave the state unchanged.
func CheckRemoveFrame(s models.AdState, id string) error {
	if s.FrameIndex(id) < 0 {
		return fmt.Errorf("frame %s: %w", id, models.ErrNotFound)
	}
	if len(s.Frames) <= 1 {
		return ErrLastFrame
	}
	return nil
}

// RemoveFrame deletes a frame. The last frame is never removed. When the active
// frame is removed the first remaining frame becomes active.
func RemoveFrame(id string) Transition {
	return func(s models.AdState) models.AdState {
		if CheckRemoveFrame(s, id) != nil {
			return s
		}
		return edit(func(s *models.AdState) {
			s.Frames = slices.DeleteFunc(s.Frames, func(f models.Frame) bool { return f.ID == id })
			if s.ActiveFrameID == id {
				s.ActiveFrameID = s.Frames[0].ID
			}
			s.AnimationKey++
		})(s)
	}
}

// MoveFrame swaps a frame with its neighbour. Moves past either end are ignored.
func MoveFrame(id string, dir Direction) Transition {
	return func(s models.AdState) models.AdState {
		i := s.FrameIndex(id)
		j := i - 1
		if dir == Right {
			j = i + 1
		}
		if i < 0 || j < 0 || j >= len(s.Frames) || (dir != Left && dir != Right) {
			return s
		}
		return edit(func(s *models.AdState) {
			s.Frames[i], s.Frames[j] = s.Frames[j], s.Frames[i]
			s.AnimationKey++
		})(s)
	}
}

// ReorderFrames moves the frame at index from to index to.
func ReorderFrames(from, to int) Transition {
	return func(s models.AdState) models.AdState {
		n := len(s.Frames)
		if from < 0 || from >= n || to < 0 || to >= n || from == to {
			return s
		}
		return edit(func(s *models.AdState) {
			f := s.Frames[from]
			s.Frames = slices.Delete(s.Frames, from, from+1)
			s.Frames = slices.Insert(s.Frames, to, f)
			s.AnimationKey++
		})(s)
	}
}

// SetActiveFrame selects the frame being edited. Unknown ids are ignored.
func SetActiveFrame(id string) Transition {
	return func(s models.AdState) models.AdState {
		if s.FrameIndex(id) < 0 {
			return s
		}
		next := s.Clone()
		next.ActiveFrameID = id
		return next
	}
}

// UpdateFrameLayout sets the active frame's layout.
func UpdateFrameLayout(layout models.FrameLayout) Transition {
	return editActiveFrame(func(f *models.Frame) { f.Layout = layout })
}

// UpdateActiveFrameDuration sets or, with nil, clears the active frame's own duration.
func UpdateActiveFrameDuration(seconds *float64) Transition {
	return edit(func(s *models.AdState) {
		if i := s.FrameIndex(s.ActiveFrameID); i >= 0 {
			s.Frames[i].Duration = copyFloat(seconds)
		}
		s.AnimationKey++
	})
}

// UpdateFrameDurationByID sets the duration of a specific frame.
func UpdateFrameDurationByID(id string, seconds float64) Transition {
	return edit(func(s *models.AdState) {
		if i := s.FrameIndex(id); i >= 0 {
			s.Frames[i].Duration = models.Float(seconds)
		}
		s.AnimationKey++
	})
}

// UpdateFrameDuration sets the global frame duration.
func UpdateFrameDuration(seconds float64) Transition {
	return edit(func(s *models.AdState) {
		s.FrameDuration = seconds
		s.AnimationKey++
	})
}

// SetTimingMode switches between the global slider and per-frame durations.
func SetTimingMode(mode models.TimingMode) Transition {
	return edit(func(s *models.AdState) { s.TimingMode = mode })
}

// ToggleSize adds the size if absent and removes it otherwise.
func ToggleSize(key string) Transition {
	return edit(func(s *models.AdState) {
		if slices.Contains(s.SelectedSizes, key) {
			s.SelectedSizes = slices.DeleteFunc(s.SelectedSizes, func(k string) bool { return k == key })
			return
		}
		s.SelectedSizes = append(s.SelectedSizes, key)
	})
}

// AddCustomSize selects width×height. Both dimensions must be positive.
func AddCustomSize(width, height int) (Transition, error) {
	key := models.SizeKey(width, height)
	if _, _, err := models.ParseSizeKey(key); err != nil {
		return nil, err
	}
	return func(s models.AdState) models.AdState {
		if slices.Contains(s.SelectedSizes, key) {
			return s
		}
		next := s.Clone()
		next.SelectedSizes = append(next.SelectedSizes, key)
		return next
	}, nil
}

// UpdateLandingPage sets the click-through base URL.
func UpdateLandingPage(url string) Transition {
	return edit(func(s *models.AdState) { s.LandingPage = url })
}

// UpdateUTM sets one tracking parameter.
func UpdateUTM(field models.UTMField, value string) Transition {
	return edit(func(s *models.AdState) { s.UTM = s.UTM.With(field, value) })
}

// UpdateAsset sets or, with "", clears an image slot of the active frame.
func UpdateAsset(slot models.AssetSlot, value string) Transition {
	return editActiveFrame(func(f *models.Frame) { f.Assets = f.Assets.With(slot, value) })
}

// UpdateCopy sets a text field of the active frame.
func UpdateCopy(field CopyField, value string) Transition {
	return editActiveFrame(func(f *models.Frame) {
		switch field {
		case CopyHeadline:
			f.Copy.Headline = value
		case CopySubline:
			f.Copy.Subline = value
		case CopyCTA:
			f.Copy.CTA = value
		}
	})
}

// UpdateDesign replaces the design tokens.
func UpdateDesign(d models.Design) Transition {
	return edit(func(s *models.AdState) { s.Design = d })
}

// UpdateAnimation replaces the enter animation without replaying the preview.
func UpdateAnimation(a models.Animation) Transition {
	return edit(func(s *models.AdState) { s.Animation = a })
}

// ApplyAnimationPreset sets effect and duration from a preset and replays.
func ApplyAnimationPreset(p models.AnimationPreset) Transition {
	return edit(func(s *models.AdState) {
		s.Animation = models.Animation{Effect: p.Effect, Duration: p.Duration}
		s.AnimationKey++
	})
}

// UpdateSizeOverride merges patch into the override stored for key.
func UpdateSizeOverride(key string, patch models.SizeOverride) Transition {
	return edit(func(s *models.AdState) {
		if s.SizeOverrides == nil {
			s.SizeOverrides = map[string]models.SizeOverride{}
		}
		s.SizeOverrides[key] = s.SizeOverrides[key].Merge(patch)
	})
}

// TriggerReplay restarts the preview animation.
func TriggerReplay() Transition {
	return edit(func(s *models.AdState) { s.AnimationKey++ })
}

// AddLibraryAssets prepends items to the asset library. For every category except
// general the first item is also placed in the matching slot of the active frame.
func AddLibraryAssets(items []models.AssetItem, category models.AssetCategory) Transition {
	return func(s models.AdState) models.AdState {
		if len(items) == 0 {
			return s
		}
		next := s.Clone()
		next.AssetLibrary = append(slices.Clone(items), next.AssetLibrary...)
		if slot, ok := category.Slot(); ok {
			if i := next.FrameIndex(next.ActiveFrameID); i >= 0 {
				next.Frames[i].Assets = next.Frames[i].Assets.With(slot, items[0].URL)
			}
		}
		return next
	}
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
