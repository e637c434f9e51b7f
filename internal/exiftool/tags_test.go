package exiftool

import (
	"slices"
	"testing"

	"imgseo/internal/model"
)

func TestFieldArgs_FansOutAcrossTagConventions(t *testing.T) {
	meta := model.EffectiveMetadata{
		Author:      "DecoTech Publicidad",
		Title:       "Letrero acrílico",
		Description: "Letrero corporativo",
		AltText:     "Letrero de acrílico en oficina",
		Copyright:   "© 2025 DecoTech",
		LicenseURL:  "https://example.com/licencias",
		Keywords:    "letreros, acrilico",
	}

	args := FieldArgs(meta)

	wantPresent := []string{
		"-IPTC:Creator=DecoTech Publicidad",
		"-IPTC:Credit=DecoTech Publicidad",
		"-XMP-dc:creator=DecoTech Publicidad",
		"-IFD0:Artist=DecoTech Publicidad",
		"-EXIF:XPAuthor=DecoTech Publicidad",
		"-XMP:Title=Letrero acrílico",
		"-IPTC:ObjectName=Letrero acrílico",
		"-EXIF:XPTitle=Letrero acrílico",
		"-XMP-dc:description=Letrero corporativo",
		"-XMP:Description=Letrero corporativo",
		"-IPTC:Caption-Abstract=Letrero corporativo",
		"-EXIF:XPComment=Letrero corporativo",
		"-XMP:AltTextAccessibility=Letrero de acrílico en oficina",
		"-IPTC:CopyrightNotice=© 2025 DecoTech",
		"-XMP-dc:rights=© 2025 DecoTech",
		"-IFD0:Copyright=© 2025 DecoTech",
		"-XMP-xmpRights:WebStatement=https://example.com/licencias",
		"-XMP:UsageTerms=https://example.com/licencias",
		"-IPTC:Keywords+=letreros",
		"-XMP-dc:subject+=letreros",
		"-IPTC:Keywords+=acrilico",
		"-XMP-dc:subject+=acrilico",
		"-EXIF:XPKeywords=letreros, acrilico",
	}
	for _, w := range wantPresent {
		if !slices.Contains(args, w) {
			t.Fatalf("missing arg %q in %v", w, args)
		}
	}
	if len(args) != len(wantPresent) {
		t.Fatalf("args count = %d, want %d: %v", len(args), len(wantPresent), args)
	}
}

func TestFieldArgs_BlankFieldsProduceNothing(t *testing.T) {
	if args := FieldArgs(model.EffectiveMetadata{Title: "  "}); len(args) != 0 {
		t.Fatalf("args = %v, want empty", args)
	}
}

func TestGPSRef(t *testing.T) {
	cases := []struct {
		value   float64
		isLat   bool
		wantRef string
		wantMag float64
	}{
		{-12.0464, true, "S", 12.0464},
		{-77.0428, false, "W", 77.0428},
		{12.0464, true, "N", 12.0464},
		{77.0428, false, "E", 77.0428},
		{0, true, "N", 0},
		{0, false, "E", 0},
	}
	for _, tc := range cases {
		ref, mag := GPSRef(tc.value, tc.isLat)
		if ref != tc.wantRef || mag != tc.wantMag {
			t.Fatalf("GPSRef(%v, lat=%v) = %s %v, want %s %v",
				tc.value, tc.isLat, ref, mag, tc.wantRef, tc.wantMag)
		}
	}
}

func TestGPSArgs_LimaCoordinates(t *testing.T) {
	args, ok := GPSArgs(model.EffectiveMetadata{
		GPSLatitude:  "-12.0464",
		GPSLongitude: "-77.0428",
		GPSAltitude:  "154",
	})
	if !ok {
		t.Fatal("expected GPS args")
	}
	want := []string{
		"-EXIF:GPSLatitudeRef=S",
		"-EXIF:GPSLatitude=12.0464",
		"-EXIF:GPSLongitudeRef=W",
		"-EXIF:GPSLongitude=77.0428",
		"-EXIF:GPSAltitude=154",
	}
	if !slices.Equal(args, want) {
		t.Fatalf("args = %v, want %v", args, want)
	}
}

func TestGPSArgs_RequiresBothCoordinates(t *testing.T) {
	cases := []model.EffectiveMetadata{
		{GPSLatitude: "-12.0464"},
		{GPSLongitude: "-77.0428"},
		{GPSLatitude: "doce", GPSLongitude: "-77.0428"},
		{},
	}
	for _, meta := range cases {
		if _, ok := GPSArgs(meta); ok {
			t.Fatalf("expected no GPS args for %+v", meta)
		}
	}
}

func TestGPSArgs_NonNumericAltitudeDropped(t *testing.T) {
	args, ok := GPSArgs(model.EffectiveMetadata{
		GPSLatitude:  "12.5",
		GPSLongitude: "40",
		GPSAltitude:  "alto",
	})
	if !ok {
		t.Fatal("expected GPS args")
	}
	for _, a := range args {
		if a == "-EXIF:GPSAltitude=alto" {
			t.Fatal("non-numeric altitude written")
		}
	}
	if len(args) != 4 {
		t.Fatalf("args = %v", args)
	}
}
