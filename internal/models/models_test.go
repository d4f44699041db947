package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSizeKey(t *testing.T) {
	tests := []struct {
		key     string
		w, h    int
		wantErr bool
	}{
		{"300x250", 300, 250, false},
		{"1x1", 1, 1, false},
		{"300X250", 0, 0, true},
		{"0x250", 0, 0, true},
		{"-5x10", 0, 0, true},
		{"300x", 0, 0, true},
		{"300x250x1", 0, 0, true},
		{"abcx10", 0, 0, true},
		{"", 0, 0, true},
		{"+300x250", 0, 0, true},
		{"0300x250", 0, 0, true},
		{"300x+250", 0, 0, true},
		{"300x0250", 0, 0, true},
		{" 300x250", 0, 0, true},
		{"1000x1000", 1000, 1000, false},
	}
	for _, tt := range tests {
		w, h, err := ParseSizeKey(tt.key)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidSize) {
				t.Errorf("ParseSizeKey(%q) error = %v, want ErrInvalidSize", tt.key, err)
			}
			continue
		}
		if err != nil || w != tt.w || h != tt.h {
			t.Errorf("ParseSizeKey(%q) = %d, %d, %v", tt.key, w, h, err)
		}
	}
}

func TestAvailableSizesRoundTrip(t *testing.T) {
	for _, s := range AvailableSizes {
		w, h, err := ParseSizeKey(s.Key())
		require.NoError(t, err)
		assert.Equal(t, s.Width, w)
		assert.Equal(t, s.Height, h)
	}
}

func TestDecodeProject_Defaults(t *testing.T) {
	state, err := DecodeProject([]byte(`{"id":"a","name":"Old","frames":[{"id":"f1","copy":{"headline":"Hi"}}]}`))
	require.NoError(t, err)
	assert.Equal(t, TimingGlobal, state.TimingMode)
	assert.NotNil(t, state.AssetLibrary)
	assert.NotNil(t, state.SizeOverrides)
	assert.NotNil(t, state.SelectedSizes)
	assert.Equal(t, "Hi", state.Frames[0].Copy.Headline)
}

func TestDecodeProject_Rejects(t *testing.T) {
	for _, doc := range []string{`not json`, `{"name":"x"}`, `{"frames":null}`, `[]`} {
		_, err := DecodeProject([]byte(doc))
		assert.ErrorIs(t, err, ErrInvalidProject, doc)
	}
}

func TestProjectRoundTrip(t *testing.T) {
	state := NewDefaultState("v1", "Summer", "f1")
	state.Frames[0].Duration = Float(1.5)
	state.SizeOverrides["728x90"] = SizeOverride{LogoScale: Float(0.8)}

	data, err := EncodeProject(state)
	require.NoError(t, err)
	back, err := DecodeProject(data)
	require.NoError(t, err)
	assert.Equal(t, state, back)
}

func TestProjectFileName(t *testing.T) {
	assert.Equal(t, "spring_sale__blue_.json", ProjectFileName("Spring Sale (Blue)"))
	assert.Equal(t, "variation_1.json", ProjectFileName("Variation 1"))
}

func TestClone_Independent(t *testing.T) {
	state := NewDefaultState("v1", "A", "f1")
	state.Frames[0].Duration = Float(2)
	state.SizeOverrides["300x250"] = SizeOverride{BgScale: Float(1.1)}

	c := state.Clone()
	c.Frames[0].Copy.Headline = "changed"
	*c.Frames[0].Duration = 9
	*c.SizeOverrides["300x250"].BgScale = 3
	c.SelectedSizes[0] = "728x90"

	assert.Equal(t, "Your Headline Here", state.Frames[0].Copy.Headline)
	assert.Equal(t, 2.0, *state.Frames[0].Duration)
	assert.Equal(t, 1.1, *state.SizeOverrides["300x250"].BgScale)
	assert.Equal(t, "300x250", state.SelectedSizes[0])
}

func TestSizeOverrideMerge(t *testing.T) {
	base := SizeOverride{FontSizeScale: Float(1.2), LogoOffsetX: Float(4)}
	merged := base.Merge(SizeOverride{LogoOffsetX: Float(-2), BgScale: Float(1.5)})

	assert.Equal(t, 1.2, *merged.FontSizeScale)
	assert.Equal(t, -2.0, *merged.LogoOffsetX)
	assert.Equal(t, 1.5, *merged.BgScale)
	assert.Nil(t, merged.ProductScale)
	assert.Equal(t, 4.0, *base.LogoOffsetX)
}

func TestNamedCampaign(t *testing.T) {
	assert.Equal(t, "", UTMParams{Campaign: PlaceholderCampaign}.NamedCampaign())
	assert.Equal(t, "", UTMParams{}.NamedCampaign())
	assert.Equal(t, "spring", UTMParams{Campaign: "spring"}.NamedCampaign())
}

func TestAssetCategorySlot(t *testing.T) {
	slot, ok := CategoryProduct.Slot()
	assert.True(t, ok)
	assert.Equal(t, SlotProduct, slot)

	_, ok = CategoryGeneral.Slot()
	assert.False(t, ok)
}
