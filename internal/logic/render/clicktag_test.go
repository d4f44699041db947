package render

import (
	"testing"

	"github.com/patrickwarner/bannerforge/internal/models"
)

func TestBuildClickTag(t *testing.T) {
	tests := []struct {
		name    string
		landing string
		utm     models.UTMParams
		want    string
	}{
		{
			name:    "question mark separator",
			landing: "https://example.com",
			utm:     models.UTMParams{Source: "google", Medium: "display"},
			want:    "https://example.com?utm_source=google&utm_medium=display",
		},
		{
			name:    "ampersand when query exists",
			landing: "https://x.com/p?id=1",
			utm:     models.UTMParams{Source: "fb"},
			want:    "https://x.com/p?id=1&utm_source=fb",
		},
		{
			name:    "no utm leaves landing untouched",
			landing: "https://x.com/p",
			want:    "https://x.com/p",
		},
		{
			name:    "fixed order and encoding",
			landing: "https://x.com",
			utm:     models.UTMParams{Term: "red shoes", Campaign: "spring&sale", Content: "c1"},
			want:    "https://x.com?utm_campaign=spring%26sale&utm_content=c1&utm_term=red+shoes",
		},
		{
			name:    "browser form encoding of star and tilde",
			landing: "https://x.com",
			utm:     models.UTMParams{Source: "a*b", Content: "~c1~", Term: "100%*"},
			want:    "https://x.com?utm_source=a*b&utm_content=%7Ec1%7E&utm_term=100%25*",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildClickTag(tt.landing, tt.utm); got != tt.want {
				t.Fatalf("BuildClickTag() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClickTagScriptEscapes(t *testing.T) {
	got := clickTagScript(`https://x.com/"</script>`)
	want := `var clickTag = "https://x.com/\"\u003c/script\u003e";`
	if got != want {
		t.Fatalf("clickTagScript() = %q, want %q", got, want)
	}
}
