package export

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/patrickwarner/bannerforge/internal/models"
)

// ReadmeName and ReadmeText are written to the root of every bundle archive.
const (
	ReadmeName = "README.txt"
	ReadmeText = "IMPORTANT: Do not upload this ZIP file directly to Google Ads.\n\n" +
		"1. Unzip this file first.\n" +
		"2. Upload the individual .zip files (e.g., '300x250.zip') found inside."
)

const defaultBundleName = "HTML5_Banners_Bundle"

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// SanitizeName replaces every character outside [A-Za-z0-9_-] with "-".
func SanitizeName(s string) string {
	return unsafeName.ReplaceAllString(s, "-")
}

func dateStamp(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// UnitArchiveName names a single-unit download: {base}_{size}_{date}.zip, where base
// is the campaign unless it is empty or the placeholder, else the variation name.
func UnitArchiveName(state models.AdState, size string, now time.Time) string {
	base := state.UTM.NamedCampaign()
	if base == "" {
		base = state.Name
	}
	return SanitizeName(base) + "_" + size + "_" + dateStamp(now) + ".zip"
}

// BundleArchiveName names a bulk download after the active variation's campaign.
func BundleArchiveName(active models.AdState, now time.Time) string {
	name := defaultBundleName
	if c := active.UTM.NamedCampaign(); c != "" {
		name = c + "_Bundle"
	}
	return SanitizeName(name) + "_" + dateStamp(now) + ".zip"
}

// folderNames returns one folder per variation. Empty names fall back to
// variation-{id}; repeated names get -2, -3 suffixes so entries never collide.
func folderNames(variations []models.AdState) []string {
	out := make([]string, len(variations))
	used := make(map[string]int, len(variations))
	for i, v := range variations {
		name := SanitizeName(strings.TrimSpace(v.Name))
		if name == "" {
			name = SanitizeName("variation-" + v.ID)
		}
		used[name]++
		if n := used[name]; n > 1 {
			candidate := name + "-" + strconv.Itoa(n)
			for used[candidate] > 0 {
				n++
				candidate = name + "-" + strconv.Itoa(n)
			}
			used[name] = n
			used[candidate] = 1
			name = candidate
		}
		out[i] = name
	}
	return out
}
