package transform

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
	"golang.org/x/image/tiff"

	_ "golang.org/x/image/webp" // register WEBP decoding

	"imgseo/internal/model"
)

// Output formats.
const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
	FormatTIFF = "tiff"
	FormatWEBP = "webp"
)

var white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// PrimaryFormat picks the primary output container. JPEG unless the source
// is a format the policy preserves (PNG/TIFF/WEBP) and conversion to JPEG is
// disabled.
func PrimaryFormat(srcExt string, convertToJPEG bool) string {
	switch strings.ToLower(strings.TrimSpace(srcExt)) {
	case "png":
		if !convertToJPEG {
			return FormatPNG
		}
	case "tif", "tiff":
		if !convertToJPEG {
			return FormatTIFF
		}
	case "webp":
		if !convertToJPEG {
			return FormatWEBP
		}
	}
	return FormatJPEG
}

// FormatExt maps an output format to its file extension without the dot.
func FormatExt(format string) string {
	switch format {
	case FormatPNG:
		return "png"
	case FormatTIFF:
		return "tif"
	case FormatWEBP:
		return "webp"
	default:
		return "jpg"
	}
}

func encode(img *image.NRGBA, format string, cfg model.JobConfig) (Encoded, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case FormatJPEG:
		// JPEG carries no alpha: the encoder writes RGB regardless.
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: cfg.JPEGQuality})
	case FormatPNG:
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		err = enc.Encode(&buf, img)
	case FormatTIFF:
		err = tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	case FormatWEBP:
		var opts *encoder.Options
		opts, err = encoder.NewLossyEncoderOptions(encoder.PresetDefault, float32(cfg.WEBPQuality))
		if err == nil {
			err = webp.Encode(&buf, img, opts)
		}
	default:
		return Encoded{}, fmt.Errorf("unknown output format %q", format)
	}
	if err != nil {
		return Encoded{}, fmt.Errorf("encode %s: %w", format, err)
	}
	if buf.Len() == 0 {
		return Encoded{}, fmt.Errorf("encode %s produced no data", format)
	}
	return Encoded{Format: format, Ext: FormatExt(format), Data: buf.Bytes()}, nil
}
