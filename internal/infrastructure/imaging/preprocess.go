package imaging

import (
	"image"
	"math"
)

// Параметры предобработки подобраны по снимкам с телефонных камер:
// сетка CLAHE 8×8 с отсечением 2.0, локальная бинаризация окном 15,
// замыкание 3×3 и сглаживание только на шумных кадрах.
const (
	claheGrid      = 8
	claheClipLimit = 2.0
	binarizeWindow = 15
	noiseThreshold = 0.15
	minEnhanceSide = 2 * claheGrid // ниже этого тайлы CLAHE вырождаются

	// Окна с разбросом яркости меньше этого считаются однотонными
	// и бинаризуются по глобальному порогу.
	flatWindowSpread = 16
)

// Enhance строит улучшенный вариант изображения: выравнивание контраста,
// локальная бинаризация, морфологическое замыкание и условное сглаживание.
// При деградации возвращает исходный буфер и false, ошибок не бывает.
func (p *Pipeline) Enhance(img *image.Gray) (*image.Gray, bool) {
	if img == nil {
		return nil, false
	}
	if img.Rect.Dx() < minEnhanceSide || img.Rect.Dy() < minEnhanceSide {
		return img, false
	}

	src := anchor(img)
	eq := equalize(src)
	// Шум оцениваем до бинаризации: после неё перепад яркости
	// есть на каждой границе модуля и оценка теряет смысл.
	noisy := estimateNoise(eq) > noiseThreshold
	out := morphClose(binarize(eq))
	if noisy {
		out = gaussianBlur(out)
	}
	return out, true
}

// equalize выполняет CLAHE: независимые гистограммы по сетке тайлов,
// отсечение пиков и билинейное смешивание таблиц яркости между тайлами.
func equalize(src *image.Gray) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	tileW, tileH := w/claheGrid, h/claheGrid

	luts := make([][256]uint8, claheGrid*claheGrid)
	for ty := 0; ty < claheGrid; ty++ {
		for tx := 0; tx < claheGrid; tx++ {
			x0, y0 := tx*tileW, ty*tileH
			x1, y1 := x0+tileW, y0+tileH
			// Последний тайл в ряду забирает остаток от деления.
			if tx == claheGrid-1 {
				x1 = w
			}
			if ty == claheGrid-1 {
				y1 = h
			}
			buildTileLUT(src, x0, y0, x1, y1, &luts[ty*claheGrid+tx])
		}
	}

	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		fy := (float64(y)+0.5)/float64(tileH) - 0.5
		ty0 := int(math.Floor(fy))
		wy := fy - float64(ty0)
		ty1 := ty0 + 1
		if ty0 < 0 {
			ty0, ty1, wy = 0, 0, 0
		}
		if ty1 >= claheGrid {
			ty1 = claheGrid - 1
			if ty0 >= claheGrid {
				ty0 = claheGrid - 1
			}
		}

		srow := src.Pix[y*src.Stride : y*src.Stride+w]
		drow := dst.Pix[y*dst.Stride : y*dst.Stride+w]
		for x := 0; x < w; x++ {
			fx := (float64(x)+0.5)/float64(tileW) - 0.5
			tx0 := int(math.Floor(fx))
			wx := fx - float64(tx0)
			tx1 := tx0 + 1
			if tx0 < 0 {
				tx0, tx1, wx = 0, 0, 0
			}
			if tx1 >= claheGrid {
				tx1 = claheGrid - 1
				if tx0 >= claheGrid {
					tx0 = claheGrid - 1
				}
			}

			v := srow[x]
			top := float64(luts[ty0*claheGrid+tx0][v])*(1-wx) + float64(luts[ty0*claheGrid+tx1][v])*wx
			bottom := float64(luts[ty1*claheGrid+tx0][v])*(1-wx) + float64(luts[ty1*claheGrid+tx1][v])*wx
			drow[x] = uint8(top*(1-wy) + bottom*wy + 0.5)
		}
	}
	return dst
}

// buildTileLUT считает гистограмму тайла, срезает пики по клип-лимиту,
// перекладывает срезанное равномерно по корзинам и строит CDF-таблицу.
func buildTileLUT(src *image.Gray, x0, y0, x1, y1 int, lut *[256]uint8) {
	var hist [256]int
	for y := y0; y < y1; y++ {
		row := src.Pix[y*src.Stride+x0 : y*src.Stride+x1]
		for _, v := range row {
			hist[v]++
		}
	}

	area := (x1 - x0) * (y1 - y0)
	clip := int(claheClipLimit * float64(area) / 256)
	if clip < 1 {
		clip = 1
	}
	excess := 0
	for i := range hist {
		if hist[i] > clip {
			excess += hist[i] - clip
			hist[i] = clip
		}
	}
	share := excess / 256
	for i := range hist {
		hist[i] += share
	}

	total := 0
	for _, c := range hist {
		total += c
	}
	if total == 0 {
		for i := range lut {
			lut[i] = uint8(i)
		}
		return
	}
	cum := 0
	for i := 0; i < 256; i++ {
		cum += hist[i]
		lut[i] = uint8(cum * 255 / total)
	}
}

// binarize выполняет локальную бинаризацию Оцу скользящим окном.
// Тёмные пиксели уходят в 0, светлые в 255.
func binarize(src *image.Gray) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))

	var global [256]int
	for y := 0; y < h; y++ {
		for _, v := range src.Pix[y*src.Stride : y*src.Stride+w] {
			global[v]++
		}
	}
	globalThr := otsuThreshold(&global, w*h)

	for y0 := 0; y0 < h; y0 += binarizeWindow {
		y1 := minInt(y0+binarizeWindow, h)
		for x0 := 0; x0 < w; x0 += binarizeWindow {
			x1 := minInt(x0+binarizeWindow, w)

			var hist [256]int
			lo, hi := 255, 0
			for y := y0; y < y1; y++ {
				for _, v := range src.Pix[y*src.Stride+x0 : y*src.Stride+x1] {
					hist[v]++
					if int(v) < lo {
						lo = int(v)
					}
					if int(v) > hi {
						hi = int(v)
					}
				}
			}

			// В однотонных окнах (фон, заливка) локальный Оцу усиливает
			// шум, поэтому там работает глобальный порог.
			thr := globalThr
			if hi-lo >= flatWindowSpread {
				thr = otsuThreshold(&hist, (x1-x0)*(y1-y0))
			}

			for y := y0; y < y1; y++ {
				srow := src.Pix[y*src.Stride+x0 : y*src.Stride+x1]
				drow := dst.Pix[y*dst.Stride+x0 : y*dst.Stride+x1]
				for i, v := range srow {
					if v > thr {
						drow[i] = 255
					}
				}
			}
		}
	}
	return dst
}

// otsuThreshold подбирает порог максимизацией межклассовой дисперсии.
func otsuThreshold(hist *[256]int, total int) uint8 {
	if total == 0 {
		return 127
	}
	sum := 0
	for i, c := range hist {
		sum += i * c
	}

	best, bestVar := 0, -1.0
	wB, sumB := 0, 0
	for t := 0; t < 256; t++ {
		wB += hist[t]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += t * hist[t]
		mB := float64(sumB) / float64(wB)
		mF := float64(sum-sumB) / float64(wF)
		v := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)
		if v > bestVar {
			bestVar = v
			best = t
		}
	}
	return uint8(best)
}

// morphClose выполняет замыкание 3×3 для тёмных модулей QR-кода:
// минимум затягивает светлые проколы внутри модулей, следующий за ним
// максимум возвращает границы, не склеивая соседние модули.
func morphClose(src *image.Gray) *image.Gray {
	return rankFilter3(rankFilter3(src, true), false)
}

// rankFilter3 — сепарабельный минимум или максимум 3×3
// с повтором крайних пикселей на границах.
func rankFilter3(src *image.Gray, takeMin bool) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	pick := func(a, b uint8) uint8 {
		if takeMin {
			if b < a {
				return b
			}
			return a
		}
		if b > a {
			return b
		}
		return a
	}

	tmp := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		srow := src.Pix[y*src.Stride : y*src.Stride+w]
		trow := tmp.Pix[y*tmp.Stride : y*tmp.Stride+w]
		for x := 0; x < w; x++ {
			v := srow[x]
			if x > 0 {
				v = pick(v, srow[x-1])
			}
			if x < w-1 {
				v = pick(v, srow[x+1])
			}
			trow[x] = v
		}
	}

	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		up := tmp.Pix[maxInt(y-1, 0)*tmp.Stride:]
		cur := tmp.Pix[y*tmp.Stride:]
		down := tmp.Pix[minInt(y+1, h-1)*tmp.Stride:]
		out := dst.Pix[y*dst.Stride : y*dst.Stride+w]
		for x := 0; x < w; x++ {
			out[x] = pick(pick(cur[x], up[x]), down[x])
		}
	}
	return dst
}

// estimateNoise оценивает долю высокочастотного шума как средний
// перепад яркости с левым и верхним соседом, нормированный на 255.
func estimateNoise(src *image.Gray) float64 {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if w < 2 || h < 2 {
		return 0
	}
	var sum uint64
	for y := 1; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w]
		prev := src.Pix[(y-1)*src.Stride : (y-1)*src.Stride+w]
		for x := 1; x < w; x++ {
			sum += uint64(absDiff(row[x], row[x-1]))
			sum += uint64(absDiff(row[x], prev[x]))
		}
	}
	count := 2 * (w - 1) * (h - 1)
	return float64(sum) / (float64(count) * 255)
}

// Ядро Гаусса с сигмой 1.0, нормированное на сумму 8192.
var gaussKernel = [5]int{446, 2001, 3298, 2001, 446}

// gaussianBlur — сепарабельное размытие 5×5 с повтором крайних пикселей.
func gaussianBlur(src *image.Gray) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()

	tmp := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		srow := src.Pix[y*src.Stride : y*src.Stride+w]
		trow := tmp.Pix[y*tmp.Stride : y*tmp.Stride+w]
		for x := 0; x < w; x++ {
			acc := 4096
			for k := -2; k <= 2; k++ {
				acc += gaussKernel[k+2] * int(srow[clampInt(x+k, 0, w-1)])
			}
			trow[x] = uint8(acc >> 13)
		}
	}

	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		drow := dst.Pix[y*dst.Stride : y*dst.Stride+w]
		for x := 0; x < w; x++ {
			acc := 4096
			for k := -2; k <= 2; k++ {
				acc += gaussKernel[k+2] * int(tmp.Pix[clampInt(y+k, 0, h-1)*tmp.Stride+x])
			}
			drow[x] = uint8(acc >> 13)
		}
	}
	return dst
}

// anchor возвращает буфер с нулевой точкой отсчёта, копируя при необходимости.
func anchor(src *image.Gray) *image.Gray {
	if src.Rect.Min == (image.Point{}) {
		return src
	}
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+b.Dx()], row)
	}
	return dst
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
