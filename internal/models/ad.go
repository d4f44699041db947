package models

import "slices"

// AdState is one variation of a banner creative. It carries everything the renderer
// needs to produce a standalone HTML document for any of the selected sizes:
// the frame sequence, design tokens, animation settings and per-size overrides.
// Editor operations never mutate an AdState in place; they return a modified copy.
type AdState struct {
	ID   string `json:"id"`   // Unique identifier for the variation.
	Name string `json:"name"` // Display label for the variation (e.g., "Summer Sale - Blue").
	// SelectedSizes lists the output sizes as "WIDTHxHEIGHT" keys (see SizeKey).
	SelectedSizes []string `json:"selectedSizes"`

	// LandingPage is the base click-through URL before UTM parameters are appended.
	LandingPage string    `json:"landingPage"`
	UTM         UTMParams `json:"utm"`

	// Frames is the ordered animation sequence. At least one frame must exist.
	Frames []Frame `json:"frames"`
	// ActiveFrameID references the frame currently being edited. It must match a frame in Frames.
	ActiveFrameID string `json:"activeFrameId"`

	// FrameDuration is the global display time of a frame in seconds.
	// Frames with their own Duration ignore it.
	FrameDuration float64    `json:"frameDuration"`
	TimingMode    TimingMode `json:"timingMode"`

	Design    Design    `json:"design"`
	Animation Animation `json:"animation"`
	// AnimationKey is bumped whenever the preview should replay. It has no effect on rendered output.
	AnimationKey int `json:"animationKey"`

	// SizeOverrides holds manual layout adjustments keyed by "WIDTHxHEIGHT".
	SizeOverrides map[string]SizeOverride `json:"sizeOverrides"`

	// AssetLibrary holds previously uploaded images. Duplicated variations share the
	// items by value; the encoded data URI doubles as the identity of an image.
	AssetLibrary []AssetItem `json:"assetLibrary"`
}

// Frame is one step of the animated sequence.
type Frame struct {
	ID     string      `json:"id"`
	Assets Assets      `json:"assets"`
	Copy   Copy        `json:"copy"`
	Layout FrameLayout `json:"layout"`
	// Duration overrides the variation's FrameDuration (seconds) when set.
	Duration *float64 `json:"duration,omitempty"`
}

// EffectiveDuration returns the frame's own duration if set, otherwise global.
func (f Frame) EffectiveDuration(global float64) float64 {
	if f.Duration != nil {
		return *f.Duration
	}
	return global
}

// Assets holds the three optional image slots of a frame. Each slot is either empty
// or an encoded image (data URI).
type Assets struct {
	Logo       string `json:"logo"`
	Background string `json:"background"`
	Product    string `json:"product"`
}

// Get returns the encoded image stored in the given slot.
func (a Assets) Get(slot AssetSlot) string {
	switch slot {
	case SlotLogo:
		return a.Logo
	case SlotBackground:
		return a.Background
	case SlotProduct:
		return a.Product
	}
	return ""
}

// With returns a copy of a with slot set to value.
func (a Assets) With(slot AssetSlot, value string) Assets {
	switch slot {
	case SlotLogo:
		a.Logo = value
	case SlotBackground:
		a.Background = value
	case SlotProduct:
		a.Product = value
	}
	return a
}

// Copy is the text content of a frame.
type Copy struct {
	Headline string `json:"headline"`
	Subline  string `json:"subline"`
	CTA      string `json:"cta"` // Call-to-action button label.
}

// Design holds the variation-wide design tokens.
type Design struct {
	PrimaryColor    string `json:"primaryColor"`    // Headline color.
	AccentColor     string `json:"accentColor"`     // CTA button background.
	BackgroundColor string `json:"backgroundColor"` // Container and frame background.
	TextColor       string `json:"textColor"`
	BorderColor     string `json:"borderColor"`
	// Font is the selected standard font family.
	Font string `json:"font"`
	// CustomFont is an optional user-provided Google Font family that takes precedence over Font.
	CustomFont string `json:"customFont,omitempty"`
	// DisableGoogleFonts forces a web-safe font stack so the banner never references an
	// external stylesheet. Several ad networks reject uploads that do.
	DisableGoogleFonts bool `json:"disableGoogleFonts"`
	// FontSizeScale multiplies the computed base font size (0.5 to 2.0, default 1.0).
	FontSizeScale float64      `json:"fontSizeScale"`
	LogoPosition  LogoPosition `json:"logoPosition"`
}

// Animation configures how frames after the first one enter.
type Animation struct {
	Effect   AnimationEffect `json:"effect"`
	Duration float64         `json:"duration"` // Transition length in seconds.
}

// SizeOverride holds manual adjustments for one output size. Nil fields inherit the
// variation-level design setting or the neutral value (scale 1, offset 0).
type SizeOverride struct {
	FontSizeScale *float64 `json:"fontSizeScale,omitempty"`
	TextOffsetX   *float64 `json:"textOffsetX,omitempty"` // pixels
	TextOffsetY   *float64 `json:"textOffsetY,omitempty"` // pixels

	LogoScale   *float64 `json:"logoScale,omitempty"`
	LogoOffsetX *float64 `json:"logoOffsetX,omitempty"`
	LogoOffsetY *float64 `json:"logoOffsetY,omitempty"`

	BgScale   *float64 `json:"bgScale,omitempty"`
	BgOffsetX *float64 `json:"bgOffsetX,omitempty"`
	BgOffsetY *float64 `json:"bgOffsetY,omitempty"`

	ProductScale   *float64 `json:"productScale,omitempty"`
	ProductOffsetX *float64 `json:"productOffsetX,omitempty"`
	ProductOffsetY *float64 `json:"productOffsetY,omitempty"`
}

// Merge returns o with every non-nil field of patch applied on top.
func (o SizeOverride) Merge(patch SizeOverride) SizeOverride {
	pick := func(cur, next *float64) *float64 {
		if next != nil {
			v := *next
			return &v
		}
		return cur
	}
	o.FontSizeScale = pick(o.FontSizeScale, patch.FontSizeScale)
	o.TextOffsetX = pick(o.TextOffsetX, patch.TextOffsetX)
	o.TextOffsetY = pick(o.TextOffsetY, patch.TextOffsetY)
	o.LogoScale = pick(o.LogoScale, patch.LogoScale)
	o.LogoOffsetX = pick(o.LogoOffsetX, patch.LogoOffsetX)
	o.LogoOffsetY = pick(o.LogoOffsetY, patch.LogoOffsetY)
	o.BgScale = pick(o.BgScale, patch.BgScale)
	o.BgOffsetX = pick(o.BgOffsetX, patch.BgOffsetX)
	o.BgOffsetY = pick(o.BgOffsetY, patch.BgOffsetY)
	o.ProductScale = pick(o.ProductScale, patch.ProductScale)
	o.ProductOffsetX = pick(o.ProductOffsetX, patch.ProductOffsetX)
	o.ProductOffsetY = pick(o.ProductOffsetY, patch.ProductOffsetY)
	return o
}

// Float returns a pointer to v. It keeps override literals short.
func Float(v float64) *float64 {
	return &v
}

// AssetItem is an uploaded, already encoded image kept in a variation's library.
type AssetItem struct {
	ID        string        `json:"id"`
	URL       string        `json:"url"` // Encoded image (data URI).
	Category  AssetCategory `json:"category"`
	Timestamp int64         `json:"timestamp"` // Creation time in Unix milliseconds.
}

// Override returns the size override for width×height, or the zero override when none is set.
func (s AdState) Override(width, height int) SizeOverride {
	if s.SizeOverrides == nil {
		return SizeOverride{}
	}
	return s.SizeOverrides[SizeKey(width, height)]
}

// FrameIndex returns the position of the frame with the given ID, or -1.
func (s AdState) FrameIndex(id string) int {
	for i, f := range s.Frames {
		if f.ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of s. Frames, sizes and overrides are copied; asset
// library items are copied by value, which shares the encoded image strings.
func (s AdState) Clone() AdState {
	out := s
	out.SelectedSizes = slices.Clone(s.SelectedSizes)
	if s.Frames != nil {
		out.Frames = make([]Frame, len(s.Frames))
		for i, f := range s.Frames {
			out.Frames[i] = f.clone()
		}
	}
	if s.SizeOverrides != nil {
		out.SizeOverrides = make(map[string]SizeOverride, len(s.SizeOverrides))
		for k, v := range s.SizeOverrides {
			out.SizeOverrides[k] = SizeOverride{}.Merge(v)
		}
	}
	out.AssetLibrary = slices.Clone(s.AssetLibrary)
	return out
}

func (f Frame) clone() Frame {
	if f.Duration != nil {
		d := *f.Duration
		f.Duration = &d
	}
	return f
}
