package imaging

import (
	"image"

	"qrscan/internal/domain/entity"
)

// Rotate возвращает копию буфера, повёрнутую по часовой стрелке.
// Углы кратны 90°, поэтому пиксели только переставляются, без ресемплинга.
func (p *Pipeline) Rotate(img *image.Gray, angle entity.Rotation) *image.Gray {
	src := anchor(img)
	switch angle {
	case entity.Rotate90:
		return rotate90(src)
	case entity.Rotate180:
		return rotate180(src)
	case entity.Rotate270:
		return rotate270(src)
	default:
		return src
	}
}

func rotate90(src *image.Gray) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w]
		for x := 0; x < w; x++ {
			dst.Pix[x*dst.Stride+(h-1-y)] = row[x]
		}
	}
	return dst
}

func rotate180(src *image.Gray) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w]
		drow := dst.Pix[(h-1-y)*dst.Stride : (h-1-y)*dst.Stride+w]
		for x := 0; x < w; x++ {
			drow[w-1-x] = row[x]
		}
	}
	return dst
}

func rotate270(src *image.Gray) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w]
		for x := 0; x < w; x++ {
			dst.Pix[(w-1-x)*dst.Stride+y] = row[x]
		}
	}
	return dst
}
