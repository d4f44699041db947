package models

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrInvalidSize is returned when a size key cannot be parsed into positive dimensions.
var ErrInvalidSize = errors.New("invalid ad size")

// AdSize is a named banner dimension offered by the editor.
type AdSize struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Label  string `json:"label"`
}

// Key returns the "WIDTHxHEIGHT" form of the size.
func (s AdSize) Key() string {
	return SizeKey(s.Width, s.Height)
}

// AvailableSizes are the standard IAB display sizes offered out of the box.
// Custom sizes can be added per variation.
var AvailableSizes = []AdSize{
	{Width: 300, Height: 250, Label: "Medium Rectangle"},
	{Width: 728, Height: 90, Label: "Leaderboard"},
	{Width: 160, Height: 600, Label: "Wide Skyscraper"},
	{Width: 300, Height: 600, Label: "Half Page"},
	{Width: 320, Height: 50, Label: "Mobile Leaderboard"},
	{Width: 970, Height: 250, Label: "Billboard"},
	{Width: 320, Height: 480, Label: "Mobile Interstitial"},
	{Width: 336, Height: 280, Label: "Large Rectangle"},
}

// SizeKey formats a size as "WIDTHxHEIGHT" with a lowercase x.
// The same key is used for selected sizes and size overrides.
func SizeKey(width, height int) string {
	return strconv.Itoa(width) + "x" + strconv.Itoa(height)
}

var sizeKeyPattern = regexp.MustCompile(`^([1-9][0-9]*)x([1-9][0-9]*)$`)

// ParseSizeKey splits a "WIDTHxHEIGHT" key. Both components must be positive decimal
// integers without a sign or leading zeros, so every accepted key equals SizeKey(w, h).
func ParseSizeKey(key string) (int, int, error) {
	m := sizeKeyPattern.FindStringSubmatch(key)
	if m == nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSize, key)
	}
	w, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSize, key)
	}
	h, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSize, key)
	}
	return w, h, nil
}
