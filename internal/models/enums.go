package models

// FrameLayout selects how a frame arranges its product image and text block.
type FrameLayout string

// Frame layouts. Split layouts divide the banner in halves; overlay stacks the
// product image behind a translucent text panel.
const (
	LayoutStandard    FrameLayout = "standard"
	LayoutSplitTop    FrameLayout = "split-top"
	LayoutSplitBottom FrameLayout = "split-bottom"
	LayoutSplitLeft   FrameLayout = "split-left"
	LayoutSplitRight  FrameLayout = "split-right"
	LayoutOverlay     FrameLayout = "overlay"
)

// FrameLayouts lists every layout in the order their CSS is emitted.
var FrameLayouts = []FrameLayout{
	LayoutStandard,
	LayoutSplitTop,
	LayoutSplitBottom,
	LayoutSplitLeft,
	LayoutSplitRight,
	LayoutOverlay,
}

// Valid reports whether l is a known layout.
func (l FrameLayout) Valid() bool {
	for _, known := range FrameLayouts {
		if l == known {
			return true
		}
	}
	return false
}

// AnimationEffect is the enter transition applied to frames after the first.
type AnimationEffect string

const (
	EffectNone          AnimationEffect = "none"
	EffectFadeIn        AnimationEffect = "fade-in"
	EffectSlideInBottom AnimationEffect = "slide-in-bottom"
	EffectSlideInTop    AnimationEffect = "slide-in-top"
	EffectSlideInLeft   AnimationEffect = "slide-in-left"
	EffectSlideInRight  AnimationEffect = "slide-in-right"
	EffectZoomIn        AnimationEffect = "zoom-in"
	EffectZoomOut       AnimationEffect = "zoom-out"
)

// Valid reports whether e is a known effect.
func (e AnimationEffect) Valid() bool {
	switch e {
	case EffectNone, EffectFadeIn, EffectSlideInBottom, EffectSlideInTop,
		EffectSlideInLeft, EffectSlideInRight, EffectZoomIn, EffectZoomOut:
		return true
	}
	return false
}

// LogoPosition anchors the logo inside the banner.
type LogoPosition string

const (
	LogoTopLeft     LogoPosition = "top-left"
	LogoTopRight    LogoPosition = "top-right"
	LogoBottomLeft  LogoPosition = "bottom-left"
	LogoBottomRight LogoPosition = "bottom-right"
	LogoTopCenter   LogoPosition = "top-center"
	LogoCenter      LogoPosition = "center"
)

// Valid reports whether p is a known logo anchor.
func (p LogoPosition) Valid() bool {
	switch p {
	case LogoTopLeft, LogoTopRight, LogoBottomLeft, LogoBottomRight, LogoTopCenter, LogoCenter:
		return true
	}
	return false
}

// TimingMode records whether the editor shows the global duration slider or per-frame inputs.
type TimingMode string

const (
	TimingGlobal TimingMode = "global"
	TimingCustom TimingMode = "custom"
)

// AssetSlot names one of the three image slots of a frame.
type AssetSlot string

const (
	SlotBackground AssetSlot = "background"
	SlotLogo       AssetSlot = "logo"
	SlotProduct    AssetSlot = "product"
)

// AssetSlots lists the slots in the order they are scanned during export.
var AssetSlots = []AssetSlot{SlotBackground, SlotLogo, SlotProduct}

// Valid reports whether s is a known slot.
func (s AssetSlot) Valid() bool {
	return s == SlotBackground || s == SlotLogo || s == SlotProduct
}

// AssetCategory tags library items. Every category except general maps to a frame slot.
type AssetCategory string

const (
	CategoryBackground AssetCategory = "background"
	CategoryLogo       AssetCategory = "logo"
	CategoryProduct    AssetCategory = "product"
	CategoryGeneral    AssetCategory = "general"
)

// Valid reports whether c is a known category.
func (c AssetCategory) Valid() bool {
	switch c {
	case CategoryBackground, CategoryLogo, CategoryProduct, CategoryGeneral:
		return true
	}
	return false
}

// Slot returns the frame slot fed by this category. The second result is false for
// general items, which are kept in the library without being assigned to a frame.
func (c AssetCategory) Slot() (AssetSlot, bool) {
	switch c {
	case CategoryBackground:
		return SlotBackground, true
	case CategoryLogo:
		return SlotLogo, true
	case CategoryProduct:
		return SlotProduct, true
	case CategoryGeneral:
		return "", false
	}
	return "", false
}
