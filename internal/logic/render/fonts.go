package render

import (
	"net/url"

	"github.com/patrickwarner/bannerforge/internal/models"
)

const fallbackStack = "Arial, Helvetica, sans-serif"

var webSafeFonts = map[string]bool{
	"Arial":           true,
	"Helvetica":       true,
	"Verdana":         true,
	"Tahoma":          true,
	"Trebuchet MS":    true,
	"Georgia":         true,
	"Times New Roman": true,
	"Courier New":     true,
	"Impact":          true,
}

// FontChoice is the resolved font of a banner.
type FontChoice struct {
	Family string // CSS font-family value
	Href   string // web font stylesheet, empty when none is needed
}

// External reports whether the banner references a remote stylesheet.
func (f FontChoice) External() bool { return f.Href != "" }

// ResolveFont picks the font stack. The custom font wins over the selected one.
// Web-safe families and designs with web fonts disabled never produce a link.
func ResolveFont(d models.Design) FontChoice {
	family := cssValue(d.CustomFont)
	if family == "" {
		family = cssValue(d.Font)
	}
	switch {
	case family == "" || family == "Arial":
		return FontChoice{Family: fallbackStack}
	case webSafeFonts[family]:
		return FontChoice{Family: "'" + family + "', " + fallbackStack}
	case d.DisableGoogleFonts:
		return FontChoice{Family: fallbackStack}
	}
	return FontChoice{
		Family: "'" + family + "', " + fallbackStack,
		Href:   "https://fonts.googleapis.com/css2?family=" + url.QueryEscape(family) + ":wght@400;600;700&display=swap",
	}
}
