// Package transform turns one decoded source image into the in-memory
// encoded outputs of a run: color-normalize, optionally flatten transparency
// to white, downscale within the configured bounds, and encode the primary
// container plus the optional WEBP sibling. It performs no filesystem writes.
package transform

import (
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"

	"imgseo/internal/model"
)

// ErrDecode marks sources that are unreadable or not recognizable as images.
var ErrDecode = errors.New("cannot decode image")

// Encoded is one finished in-memory output.
type Encoded struct {
	Format string // "jpeg", "png", "tiff", "webp"
	Ext    string // file extension without dot
	Data   []byte
}

// Transform runs decode -> normalize -> flatten -> resize -> encode and
// returns the primary output first, followed by the WEBP sibling when the
// policy requests one. The source is never an output: an undecodable reader
// yields an error and no data.
func Transform(src io.Reader, srcExt string, cfg model.JobConfig) ([]Encoded, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	nrgba := Normalize(img)
	if cfg.FlattenWhite {
		nrgba = FlattenWhite(nrgba)
	}
	nrgba = Resize(nrgba, cfg.MaxWidth, cfg.MaxHeight)

	primary := PrimaryFormat(srcExt, cfg.ConvertToJPEG)
	out := make([]Encoded, 0, 2)

	enc, err := encode(nrgba, primary, cfg)
	if err != nil {
		return nil, err
	}
	out = append(out, enc)

	if cfg.MakeWebp && primary != FormatWEBP {
		sibling, err := encode(nrgba, FormatWEBP, cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, sibling)
	}
	return out, nil
}

// Normalize converts any decoded mode (CMYK, YCbCr, paletted, gray) to
// 8-bit NRGBA by direct mode conversion. Profile-aware ICC transforms are
// not attempted; the direct conversion is the fallback for every input and
// leaves already-RGB pixel data untouched.
func Normalize(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}

// FlattenWhite composites an image with transparency over an opaque white
// background and drops the alpha channel. Images with no transparent pixels
// pass through unchanged.
func FlattenWhite(img *image.NRGBA) *image.NRGBA {
	if img.Opaque() {
		return img
	}
	bg := imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), white)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

// Resize applies a single uniform downscale factor bounded by the set
// (nonzero) constraints. The factor is never above 1.0: no upscaling.
// Lanczos resampling; callers should assert dimensions, not bytes.
func Resize(img *image.NRGBA, maxW, maxH int) *image.NRGBA {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	scale := 1.0
	if maxW > 0 && w > maxW {
		scale = min(scale, float64(maxW)/float64(w))
	}
	if maxH > 0 && h > maxH {
		scale = min(scale, float64(maxH)/float64(h))
	}
	if scale >= 1.0 {
		return img
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}
	return imaging.Resize(img, newW, newH, imaging.Lanczos)
}
