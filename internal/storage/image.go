package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"

	"github.com/chai2010/webp"
	"golang.org/x/image/draw"
)

const (
	MaxUploadBytes = 20 << 20
	MaxImageWidth  = 2400
	webpQuality    = 85
)

var ErrUnsupportedType = errors.New("unsupported file type")

// Normalized is an upload ready to be stored.
type Normalized struct {
	Data        []byte
	ContentType string
	Ext         string
}

// NormalizeUpload sniffs the content. PNG and JPEG are scaled down to
// MaxImageWidth and re-encoded as WebP; WebP and PDF are kept as is.
func NormalizeUpload(data []byte) (*Normalized, error) {
	switch ct := http.DetectContentType(data); ct {
	case "image/png", "image/jpeg":
		out, err := toWebP(data)
		if err != nil {
			return nil, err
		}
		return &Normalized{Data: out, ContentType: "image/webp", Ext: "webp"}, nil
	case "image/webp":
		return &Normalized{Data: data, ContentType: ct, Ext: "webp"}, nil
	case "application/pdf":
		return &Normalized{Data: data, ContentType: ct, Ext: "pdf"}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, ct)
	}
}

func toWebP(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	img := src
	if b := src.Bounds(); b.Dx() > MaxImageWidth {
		h := b.Dy() * MaxImageWidth / b.Dx()
		if h < 1 {
			h = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, MaxImageWidth, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: webpQuality}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return buf.Bytes(), nil
}
