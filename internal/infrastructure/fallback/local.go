//go:build gocv
// +build gocv

package fallback

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"gocv.io/x/gocv"
	"gocv.io/x/gocv/contrib"

	"qrscan/internal/domain/entity"
	"qrscan/internal/domain/port"
	"qrscan/internal/infrastructure/imaging"
)

// Файлы модели WeChatQRCode: CNN-детектор и сеть супер-резолюции.
var wechatModelFiles = [4]string{
	"detect.prototxt",
	"detect.caffemodel",
	"sr.prototxt",
	"sr.caffemodel",
}

// LocalDetector — локальный резерв на OpenCV: нейросетевой WeChatQRCode,
// при отсутствии файлов модели — классический QRCodeDetector.
// Модель загружается один раз при первом обращении и дальше только читается.
type LocalDetector struct {
	ModelDir string
	MinCrop  int // минимальный размер области кандидата в пикселях

	engines []port.DecodeEngine

	once    sync.Once
	mu      sync.Mutex // объекты детекторов OpenCV не потокобезопасны
	wechat  *contrib.WeChatQRCode
	classic *gocv.QRCodeDetector
}

// NewLocalDetector создаёт локальный детектор. Движки нужны для
// дочитывания областей, которые модель нашла, но не раскодировала.
func NewLocalDetector(modelDir string, engines []port.DecodeEngine) *LocalDetector {
	return &LocalDetector{
		ModelDir: modelDir,
		MinCrop:  24,
		engines:  engines,
	}
}

func (d *LocalDetector) Name() string { return "opencv" }

// Detect прогоняет изображение через локальный детектор OpenCV.
func (d *LocalDetector) Detect(ctx context.Context, imageData []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", entity.ErrFallbackUnavailable, err)
	}
	d.once.Do(d.load)

	mat, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err != nil {
		return "", fmt.Errorf("%w: opencv cannot decode payload", entity.ErrNoCode)
	}
	defer mat.Close()
	if mat.Empty() {
		return "", fmt.Errorf("%w: opencv cannot decode payload", entity.ErrNoCode)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.wechat != nil {
		return d.detectWeChat(mat)
	}
	return d.detectClassic(mat)
}

// load выбирает реализацию: WeChatQRCode при полном комплекте файлов модели.
func (d *LocalDetector) load() {
	if d.ModelDir != "" && hasModelFiles(d.ModelDir) {
		d.wechat = contrib.NewWeChatQRCode(
			filepath.Join(d.ModelDir, wechatModelFiles[0]),
			filepath.Join(d.ModelDir, wechatModelFiles[1]),
			filepath.Join(d.ModelDir, wechatModelFiles[2]),
			filepath.Join(d.ModelDir, wechatModelFiles[3]),
		)
		return
	}
	classic := gocv.NewQRCodeDetector()
	d.classic = &classic
}

func (d *LocalDetector) detectWeChat(mat gocv.Mat) (string, error) {
	points := []gocv.Mat{}
	texts := d.wechat.DetectAndDecode(mat, &points)
	defer func() {
		for i := range points {
			points[i].Close()
		}
	}()

	for _, text := range texts {
		if text != "" {
			return text, nil
		}
	}
	// Модель нашла кандидатов, но не раскодировала: дочитываем области движками.
	for i := range points {
		if text, ok := d.decodeRegion(mat, points[i]); ok {
			return text, nil
		}
	}
	return "", entity.ErrNoCode
}

func (d *LocalDetector) detectClassic(mat gocv.Mat) (string, error) {
	points := gocv.NewMat()
	defer points.Close()
	straight := gocv.NewMat()
	defer straight.Close()

	text := d.classic.DetectAndDecode(mat, &points, &straight)
	if text != "" {
		return text, nil
	}
	// Детектор выпрямил код, но не раскодировал: пробуем движками.
	if !straight.Empty() {
		if img, err := straight.ToImage(); err == nil {
			if t, ok := d.decodeGray(imaging.ToGray(img)); ok {
				return t, nil
			}
		}
	}
	return "", entity.ErrNoCode
}

// decodeRegion вырезает область кандидата с запасом под тихую зону
// и отдаёт её движкам первого уровня.
func (d *LocalDetector) decodeRegion(mat gocv.Mat, corners gocv.Mat) (string, bool) {
	rect := paddedRect(corners, mat.Cols(), mat.Rows())
	if rect.Dx() < d.MinCrop || rect.Dy() < d.MinCrop {
		return "", false
	}
	region := mat.Region(rect)
	defer region.Close()

	// Мелкие области дотягиваем до размера, на котором движки стабильны.
	var work gocv.Mat
	if region.Cols() < 200 && region.Rows() < 200 {
		work = gocv.NewMat()
		gocv.Resize(region, &work, image.Pt(region.Cols()*2, region.Rows()*2), 0, 0, gocv.InterpolationCubic)
	} else {
		work = region.Clone()
	}
	defer work.Close()

	img, err := work.ToImage()
	if err != nil {
		return "", false
	}
	return d.decodeGray(imaging.ToGray(img))
}

func (d *LocalDetector) decodeGray(gray *image.Gray) (string, bool) {
	for _, e := range d.engines {
		if text, ok := e.Decode(gray); ok {
			return text, true
		}
	}
	return "", false
}

// paddedRect строит прямоугольник вокруг углов кандидата с запасом,
// чтобы не отрезать тихую зону кода.
func paddedRect(corners gocv.Mat, maxW, maxH int) image.Rectangle {
	if corners.Rows() == 0 {
		return image.Rectangle{}
	}
	x0, y0 := maxW, maxH
	x1, y1 := 0, 0
	for i := 0; i < corners.Rows(); i++ {
		x := int(corners.GetFloatAt(i, 0))
		y := int(corners.GetFloatAt(i, 1))
		x0, y0 = minInt(x0, x), minInt(y0, y)
		x1, y1 = maxInt(x1, x), maxInt(y1, y)
	}
	pad := clampInt(maxInt(x1-x0, y1-y0)/5, 20, 50)
	return image.Rect(
		clampInt(x0-pad, 0, maxW),
		clampInt(y0-pad, 0, maxH),
		clampInt(x1+pad, 0, maxW),
		clampInt(y1+pad, 0, maxH),
	)
}

func hasModelFiles(dir string) bool {
	for _, name := range wechatModelFiles {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return false
		}
	}
	return true
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

// Проверка реализации интерфейса
var _ port.FallbackDetector = (*LocalDetector)(nil)
