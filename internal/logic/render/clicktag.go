package render

import (
	"net/url"
	"strings"

	"github.com/patrickwarner/bannerforge/internal/models"
)

// ClickTagVariable is the global variable ad servers rewrite at serve time.
// Its name and the `var clickTag = "...";` assignment form must not change.
const ClickTagVariable = "clickTag"

// BuildClickTag appends the non-empty UTM fields to the landing page in the fixed order
// source, medium, campaign, content, term. The separator is "&" when the landing
// page already has a query component and "?" otherwise. With no UTM values the landing
// page is returned unchanged.
func BuildClickTag(landingPage string, utm models.UTMParams) string {
	pairs := []struct {
		key   string
		value string
	}{
		{"utm_source", utm.Source},
		{"utm_medium", utm.Medium},
		{"utm_campaign", utm.Campaign},
		{"utm_content", utm.Content},
		{"utm_term", utm.Term},
	}

	var parts []string
	for _, p := range pairs {
		if p.value == "" {
			continue
		}
		parts = append(parts, formEscape(p.key)+"="+formEscape(p.value))
	}
	if len(parts) == 0 {
		return landingPage
	}

	sep := "?"
	if strings.Contains(landingPage, "?") {
		sep = "&"
	}
	return landingPage + sep + strings.Join(parts, "&")
}

// formEscape encodes s as application/x-www-form-urlencoded the way browsers
// do: "*" stays literal and "~" is percent-encoded, unlike url.QueryEscape.
func formEscape(s string) string {
	return formFixer.Replace(url.QueryEscape(s))
}

var formFixer = strings.NewReplacer("%2A", "*", "~", "%7E")

// clickTagScript returns the script body declaring the click-through variable.
func clickTagScript(target string) string {
	return "var " + ClickTagVariable + ` = "` + jsString(target) + `";`
}

// jsString escapes s for use inside a double-quoted JavaScript string literal that
// itself sits inside a <script> element.
func jsString(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '<':
			b.WriteString(`\u003c`)
		case '>':
			b.WriteString(`\u003e`)
		case '\u2028':
			b.WriteString(`\u2028`)
		case '\u2029':
			b.WriteString(`\u2029`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
