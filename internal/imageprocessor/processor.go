package imageprocessor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	// Регистрация декодеров для image.Decode
	_ "image/gif"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ErrNotAnImage - содержимое не декодируется как изображение
var ErrNotAnImage = errors.New("file is not a valid image")

// Info - результат проверки изображения
type Info struct {
	Format string // jpeg, png, gif, webp
	Width  int
	Height int
}

// MimeType - MIME по реальному формату, а не по расширению файла
func (i Info) MimeType() string {
	return "image/" + i.Format
}

// Thumbnail - уменьшенная копия
type Thumbnail struct {
	Data        []byte
	ContentType string
	Ext         string
	Width       int
	Height      int
}

// Processor handles image processing operations
type Processor struct {
	quality       int // JPEG quality (1-100)
	thumbnailSize int // px по большей стороне
}

func NewProcessor(quality, thumbnailSize int) *Processor {
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	if thumbnailSize <= 0 {
		thumbnailSize = 400
	}
	return &Processor{
		quality:       quality,
		thumbnailSize: thumbnailSize,
	}
}

// Inspect читает только заголовок изображения
func (p *Processor) Inspect(data []byte) (*Info, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAnImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, ErrNotAnImage
	}
	return &Info{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// MakeThumbnail уменьшает изображение до thumbnailSize по большей стороне.
// PNG и GIF кодируются в PNG (прозрачность), остальное в JPEG.
func (p *Processor) MakeThumbnail(data []byte) (*Thumbnail, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAnImage, err)
	}

	resized := p.resize(img, p.thumbnailSize, p.thumbnailSize)
	bounds := resized.Bounds()

	var buf bytes.Buffer
	thumb := &Thumbnail{Width: bounds.Dx(), Height: bounds.Dy()}

	switch format {
	case "png", "gif":
		if err := png.Encode(&buf, resized); err != nil {
			return nil, fmt.Errorf("failed to encode PNG: %w", err)
		}
		thumb.ContentType, thumb.Ext = "image/png", ".png"
	default:
		if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: p.quality}); err != nil {
			return nil, fmt.Errorf("failed to encode JPEG: %w", err)
		}
		thumb.ContentType, thumb.Ext = "image/jpeg", ".jpg"
	}

	thumb.Data = buf.Bytes()
	return thumb, nil
}

// resize вписывает изображение в maxWidth x maxHeight с сохранением пропорций.
// Изображения меньше рамки не увеличиваются.
func (p *Processor) resize(img image.Image, maxWidth, maxHeight int) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width <= maxWidth && height <= maxHeight {
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
		return dst
	}

	ratio := float64(width) / float64(height)
	newWidth := maxWidth
	newHeight := maxHeight

	if float64(maxWidth)/float64(maxHeight) > ratio {
		newWidth = int(float64(maxHeight) * ratio)
	} else {
		newHeight = int(float64(maxWidth) / ratio)
	}
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	return dst
}
