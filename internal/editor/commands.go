package editor

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/patrickwarner/bannerforge/internal/models"
)

// ErrInvalidCommand is returned for commands that are unknown or carry bad arguments.
var ErrInvalidCommand = errors.New("invalid command")

// Command is the wire form of a transition, used by remote editors.
type Command struct {
	Op        string               `json:"op"`
	FrameID   string               `json:"frameId,omitempty"`
	Direction Direction            `json:"direction,omitempty"`
	From      int                  `json:"from,omitempty"`
	To        int                  `json:"to,omitempty"`
	Field     string               `json:"field,omitempty"`
	Value     string               `json:"value,omitempty"`
	Seconds   *float64             `json:"seconds,omitempty"`
	Layout    models.FrameLayout   `json:"layout,omitempty"`
	Mode      models.TimingMode    `json:"mode,omitempty"`
	Size      string               `json:"size,omitempty"`
	Width     int                  `json:"width,omitempty"`
	Height    int                  `json:"height,omitempty"`
	Design    *models.Design       `json:"design,omitempty"`
	Animation *models.Animation    `json:"animation,omitempty"`
	Preset    string               `json:"preset,omitempty"`
	Override  *models.SizeOverride `json:"override,omitempty"`
}

func invalid(op, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidCommand, op, fmt.Sprintf(format, args...))
}

// transition resolves c against the state it will be applied to.
func (c Command) transition(s models.AdState, newID func() string) (Transition, error) {
	switch c.Op {
	case "addFrame":
		return AddFrame(newID()), nil
	case "duplicateFrame":
		if s.FrameIndex(c.FrameID) < 0 {
			return nil, fmt.Errorf("frame %s: %w", c.FrameID, models.ErrNotFound)
		}
		return DuplicateFrame(c.FrameID, newID()), nil
	case "removeFrame":
		if err := CheckRemoveFrame(s, c.FrameID); err != nil {
			return nil, err
		}
		return RemoveFrame(c.FrameID), nil
	case "moveFrame":
		if c.Direction != Left && c.Direction != Right {
			return nil, invalid(c.Op, "direction %q", c.Direction)
		}
		return MoveFrame(c.FrameID, c.Direction), nil
	case "reorderFrames":
		return ReorderFrames(c.From, c.To), nil
	case "setActiveFrame":
		if s.FrameIndex(c.FrameID) < 0 {
			return nil, fmt.Errorf("frame %s: %w", c.FrameID, models.ErrNotFound)
		}
		return SetActiveFrame(c.FrameID), nil
	case "updateFrameLayout":
		if !c.Layout.Valid() {
			return nil, invalid(c.Op, "layout %q", c.Layout)
		}
		return UpdateFrameLayout(c.Layout), nil
	case "updateFrameDuration":
		switch {
		case c.FrameID != "" && c.Seconds != nil:
			return UpdateFrameDurationByID(c.FrameID, *c.Seconds), nil
		case c.FrameID != "":
			return nil, invalid(c.Op, "seconds required with frameId")
		default:
			return UpdateActiveFrameDuration(c.Seconds), nil
		}
	case "updateGlobalDuration":
		if c.Seconds == nil || *c.Seconds <= 0 {
			return nil, invalid(c.Op, "positive seconds required")
		}
		return UpdateFrameDuration(*c.Seconds), nil
	case "setTimingMode":
		if c.Mode != models.TimingGlobal && c.Mode != models.TimingCustom {
			return nil, invalid(c.Op, "mode %q", c.Mode)
		}
		return SetTimingMode(c.Mode), nil
	case "toggleSize":
		if _, _, err := models.ParseSizeKey(c.Size); err != nil {
			return nil, err
		}
		return ToggleSize(c.Size), nil
	case "addCustomSize":
		return AddCustomSize(c.Width, c.Height)
	case "updateLandingPage":
		return UpdateLandingPage(c.Value), nil
	case "updateUtm":
		field := models.UTMField(c.Field)
		switch field {
		case models.UTMSource, models.UTMMedium, models.UTMCampaign, models.UTMContent, models.UTMTerm:
		default:
			return nil, invalid(c.Op, "field %q", c.Field)
		}
		return UpdateUTM(field, c.Value), nil
	case "updateAsset":
		slot := models.AssetSlot(c.Field)
		if !slot.Valid() {
			return nil, invalid(c.Op, "slot %q", c.Field)
		}
		return UpdateAsset(slot, c.Value), nil
	case "updateCopy":
		field := CopyField(c.Field)
		if field != CopyHeadline && field != CopySubline && field != CopyCTA {
			return nil, invalid(c.Op, "field %q", c.Field)
		}
		return UpdateCopy(field, c.Value), nil
	case "updateDesign":
		if c.Design == nil {
			return nil, invalid(c.Op, "design required")
		}
		return UpdateDesign(*c.Design), nil
	case "updateAnimation":
		if c.Animation == nil || !c.Animation.Effect.Valid() {
			return nil, invalid(c.Op, "valid animation required")
		}
		return UpdateAnimation(*c.Animation), nil
	case "applyPreset":
		i := slices.IndexFunc(models.AnimationPresets, func(p models.AnimationPreset) bool { return p.Label == c.Preset })
		if i < 0 {
			return nil, invalid(c.Op, "preset %q", c.Preset)
		}
		return ApplyAnimationPreset(models.AnimationPresets[i]), nil
	case "updateSizeOverride":
		if c.Override == nil {
			return nil, invalid(c.Op, "override required")
		}
		if _, _, err := models.ParseSizeKey(c.Size); err != nil {
			return nil, err
		}
		return UpdateSizeOverride(c.Size, *c.Override), nil
	case "replay":
		return TriggerReplay(), nil
	}
	return nil, invalid(c.Op, "unknown op")
}

// Execute applies a batch of commands to the active variation. The batch is
// atomic: if any command is rejected the store is left unchanged.
func (s *Store) Execute(cmds ...Command) (models.AdState, error) {
	var out models.AdState
	err := s.update(func(cur *snapshot) (*snapshot, error) {
		i := cur.index(cur.activeID)
		if i < 0 {
			i = 0
		}
		state := cur.variations[i]
		for n, c := range cmds {
			t, err := c.transition(state, s.newID)
			if err != nil {
				return nil, fmt.Errorf("command %d: %w", n, err)
			}
			state = t(state)
		}
		out = state
		vs := slices.Clone(cur.variations)
		vs[i] = state
		return &snapshot{variations: vs, activeID: cur.activeID}, nil
	})
	if err != nil {
		s.logger.Debug("command batch rejected", zap.Error(err))
		return models.AdState{}, err
	}
	return out, nil
}
