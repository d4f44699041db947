package export

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/patrickwarner/bannerforge/internal/logic/render"
	"github.com/patrickwarner/bannerforge/internal/models"
)

// AssetDir is the folder images are extracted to inside a unit archive.
const AssetDir = "assets"

// ErrInvalidDataURI is returned when an image cannot be decoded for extraction.
var ErrInvalidDataURI = errors.New("invalid data uri")

// AssetFile is one extracted image.
type AssetFile struct {
	Path    string // relative path inside the unit archive
	Encoded string // the data URI it was decoded from
	Data    []byte
}

// AssetBundle holds the images of one variation in first-seen order and the map that
// points the renderer at them.
type AssetBundle struct {
	Files   []AssetFile
	Rewrite render.AssetRewriteMap
}

// ExtractAssets scans every frame's slots in background, logo, product order and
// extracts each distinct data URI once as assets/img_{n}.{png|jpg}, n counting from 1.
// Identity is the encoded string itself. Values that are not data URIs stay inline.
func ExtractAssets(state models.AdState) (AssetBundle, error) {
	bundle := AssetBundle{Rewrite: render.AssetRewriteMap{}}
	for _, f := range state.Frames {
		for _, slot := range models.AssetSlots {
			encoded := f.Assets.Get(slot)
			if encoded == "" || !IsDataURI(encoded) {
				continue
			}
			if _, seen := bundle.Rewrite[encoded]; seen {
				continue
			}
			data, err := DecodeDataURI(encoded)
			if err != nil {
				return AssetBundle{}, fmt.Errorf("frame %s %s: %w", f.ID, slot, err)
			}
			name := fmt.Sprintf("%s/img_%d.%s", AssetDir, len(bundle.Files)+1, extensionFor(encoded))
			bundle.Rewrite[encoded] = name
			bundle.Files = append(bundle.Files, AssetFile{Path: name, Encoded: encoded, Data: data})
		}
	}
	return bundle, nil
}

// IsDataURI reports whether s is an inline data URI.
func IsDataURI(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// extensionFor picks the file extension from the declared MIME type.
func extensionFor(dataURI string) string {
	if strings.HasPrefix(dataURI, "data:image/png") {
		return "png"
	}
	return "jpg"
}

// MediaType returns the MIME type declared by a data URI, e.g. "image/png".
func MediaType(dataURI string) string {
	header, _, ok := strings.Cut(strings.TrimPrefix(dataURI, "data:"), ",")
	if !ok {
		return ""
	}
	mt, _, _ := strings.Cut(header, ";")
	return mt
}

// DecodeDataURI returns the payload of a base64 or percent-encoded data URI.
func DecodeDataURI(dataURI string) ([]byte, error) {
	if !IsDataURI(dataURI) {
		return nil, fmt.Errorf("%w: missing data: scheme", ErrInvalidDataURI)
	}
	header, payload, ok := strings.Cut(dataURI[len("data:"):], ",")
	if !ok {
		return nil, fmt.Errorf("%w: missing payload", ErrInvalidDataURI)
	}
	if strings.HasSuffix(header, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// some encoders drop padding
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
			}
		}
		return data, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	return []byte(s), nil
}
