package engine

import (
	"bytes"
	"image"
	"testing"

	_ "image/png"

	qrgen "github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/require"

	"qrscan/internal/domain/port"
	"qrscan/internal/infrastructure/imaging"
)

func allEngines() []port.DecodeEngine {
	return []port.DecodeEngine{NewGoQR(), NewZXing(), NewZXingHard()}
}

func qrGray(t *testing.T, content string, size int) *image.Gray {
	t.Helper()
	data, err := qrgen.Encode(content, qrgen.Medium, size)
	require.NoError(t, err)
	img, _, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return imaging.ToGray(img)
}

func TestEnginesDecodeCleanCode(t *testing.T) {
	img := qrGray(t, "https://example.org/item/42", 256)

	for _, e := range allEngines() {
		text, ok := e.Decode(img)
		require.True(t, ok, e.Name())
		require.Equal(t, "https://example.org/item/42", text, e.Name())
	}
}

func TestEnginesRejectBlankTinyAndNil(t *testing.T) {
	blank := image.NewGray(image.Rect(0, 0, 64, 64))
	tiny := image.NewGray(image.Rect(0, 0, 10, 10))

	for _, e := range allEngines() {
		_, ok := e.Decode(blank)
		require.False(t, ok, e.Name())
		_, ok = e.Decode(tiny)
		require.False(t, ok, e.Name())
		_, ok = e.Decode(nil)
		require.False(t, ok, e.Name())
	}
}

func TestZXingHardReadsInvertedCode(t *testing.T) {
	img := qrGray(t, "inverted-code", 256)
	inv := invert(img)

	text, ok := NewZXingHard().Decode(inv)
	require.True(t, ok)
	require.Equal(t, "inverted-code", text)
}

func TestEngineNamesAreStable(t *testing.T) {
	names := make([]string, 0, 3)
	for _, e := range allEngines() {
		names = append(names, e.Name())
	}
	require.Equal(t, []string{"goqr", "zxing", "zxing-hard"}, names)
}
