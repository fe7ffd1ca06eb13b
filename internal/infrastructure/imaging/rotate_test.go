package imaging

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"

	"qrscan/internal/domain/entity"
)

// grid3x2 кодирует растр
//
//	1 2 3
//	4 5 6
func grid3x2() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 3, 2))
	copy(img.Pix, []uint8{1, 2, 3, 4, 5, 6})
	return img
}

func TestRotateQuarterTurns(t *testing.T) {
	p := NewPipeline(0, 0)
	src := grid3x2()

	r90 := p.Rotate(src, entity.Rotate90)
	require.Equal(t, image.Rect(0, 0, 2, 3), r90.Rect)
	require.Equal(t, []uint8{4, 1, 5, 2, 6, 3}, r90.Pix)

	r180 := p.Rotate(src, entity.Rotate180)
	require.Equal(t, image.Rect(0, 0, 3, 2), r180.Rect)
	require.Equal(t, []uint8{6, 5, 4, 3, 2, 1}, r180.Pix)

	r270 := p.Rotate(src, entity.Rotate270)
	require.Equal(t, image.Rect(0, 0, 2, 3), r270.Rect)
	require.Equal(t, []uint8{3, 6, 2, 5, 1, 4}, r270.Pix)
}

func TestRotateZeroKeepsBuffer(t *testing.T) {
	p := NewPipeline(0, 0)
	src := grid3x2()
	require.Same(t, src, p.Rotate(src, entity.Rotate0))
}

func TestRotateFullCircleRestoresImage(t *testing.T) {
	p := NewPipeline(0, 0)
	src := grid3x2()

	out := p.Rotate(p.Rotate(src, entity.Rotate90), entity.Rotate270)
	require.Equal(t, src.Pix, out.Pix)

	out = p.Rotate(p.Rotate(src, entity.Rotate180), entity.Rotate180)
	require.Equal(t, src.Pix, out.Pix)
}

func TestRotateAnchorsSubImage(t *testing.T) {
	base := image.NewGray(image.Rect(0, 0, 6, 6))
	for i := range base.Pix {
		base.Pix[i] = uint8(i)
	}
	sub := base.SubImage(image.Rect(2, 2, 5, 4)).(*image.Gray)

	out := (&Pipeline{}).Rotate(sub, entity.Rotate180)
	require.Equal(t, image.Rect(0, 0, 3, 2), out.Rect)
	require.Equal(t, base.GrayAt(4, 3).Y, out.GrayAt(0, 0).Y)
	require.Equal(t, base.GrayAt(2, 2).Y, out.GrayAt(2, 1).Y)
}
