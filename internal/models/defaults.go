package models

// Default values applied to new variations and frames.
const (
	DefaultFrameDuration     = 3.0 // seconds
	DefaultAnimationDuration = 0.8 // seconds
	DefaultVariationName     = "Variation 1"
	DefaultLandingPage       = "https://www.google.com"
)

// AnimationPreset is a named effect/duration pair offered in the editor.
type AnimationPreset struct {
	Label    string          `json:"label"`
	Effect   AnimationEffect `json:"effect"`
	Duration float64         `json:"duration"`
}

// AnimationPresets are the built-in transitions.
var AnimationPresets = []AnimationPreset{
	{Label: "None", Effect: EffectNone, Duration: 0},
	{Label: "Fade In", Effect: EffectFadeIn, Duration: 0.8},
	{Label: "Slide Up", Effect: EffectSlideInBottom, Duration: 0.6},
	{Label: "Slide Down", Effect: EffectSlideInTop, Duration: 0.6},
	{Label: "Slide Right", Effect: EffectSlideInLeft, Duration: 0.6},
	{Label: "Slide Left", Effect: EffectSlideInRight, Duration: 0.6},
	{Label: "Zoom In", Effect: EffectZoomIn, Duration: 0.8},
	{Label: "Zoom Out", Effect: EffectZoomOut, Duration: 0.8},
}

// NewDefaultFrame returns a frame with placeholder copy and the standard layout.
func NewDefaultFrame(id string) Frame {
	return Frame{
		ID: id,
		Copy: Copy{
			Headline: "Your Headline Here",
			Subline:  "Compelling subtext goes here",
			CTA:      "Learn More",
		},
		Layout: LayoutStandard,
	}
}

// NewDefaultDesign returns the starting design tokens. Web fonts are disabled so a
// fresh banner never references an external stylesheet.
func NewDefaultDesign() Design {
	return Design{
		PrimaryColor:       "#1e293b",
		AccentColor:        "#3b82f6",
		BackgroundColor:    "#ffffff",
		TextColor:          "#333333",
		BorderColor:        "#cccccc",
		Font:               "Arial",
		DisableGoogleFonts: true,
		FontSizeScale:      1.0,
		LogoPosition:       LogoTopLeft,
	}
}

// NewDefaultState returns a variation with one default frame and a single 300x250 size.
func NewDefaultState(id, name, frameID string) AdState {
	if name == "" {
		name = DefaultVariationName
	}
	frame := NewDefaultFrame(frameID)
	return AdState{
		ID:            id,
		Name:          name,
		SelectedSizes: []string{"300x250"},
		LandingPage:   DefaultLandingPage,
		UTM: UTMParams{
			Source:   "google",
			Medium:   "display",
			Campaign: PlaceholderCampaign,
			Content:  "creative_1",
		},
		Frames:        []Frame{frame},
		ActiveFrameID: frame.ID,
		FrameDuration: DefaultFrameDuration,
		TimingMode:    TimingGlobal,
		Design:        NewDefaultDesign(),
		Animation: Animation{
			Effect:   EffectFadeIn,
			Duration: DefaultAnimationDuration,
		},
		SizeOverrides: map[string]SizeOverride{},
		AssetLibrary:  []AssetItem{},
	}
}
