package exiftool

import (
	"fmt"
	"strconv"
	"strings"

	"imgseo/internal/model"
)

// Tag fan-out per semantic field. One value is duplicated across every tag
// name convention a consumer might read: OS file properties (EXIF XP*),
// IPTC-consuming asset managers, and XMP-reading web crawlers.
var (
	AuthorTags      = []string{"IPTC:Creator", "IPTC:Credit", "XMP-dc:creator", "IFD0:Artist", "EXIF:XPAuthor"}
	TitleTags       = []string{"XMP:Title", "IPTC:ObjectName", "EXIF:XPTitle"}
	DescriptionTags = []string{"XMP-dc:description", "XMP:Description", "IPTC:Caption-Abstract", "EXIF:XPComment"}
	AltTextTags     = []string{"XMP:AltTextAccessibility"}
	CopyrightTags   = []string{"IPTC:CopyrightNotice", "XMP-dc:rights", "IFD0:Copyright"}
	LicenseTags     = []string{"XMP-xmpRights:WebStatement", "XMP:UsageTerms"}

	// Keywords append to the list-typed tags one by one; the joined list
	// also goes to a single-string tag for viewers without list support.
	KeywordListTags   = []string{"IPTC:Keywords", "XMP-dc:subject"}
	KeywordJoinedTag  = "EXIF:XPKeywords"
)

// FieldArgs builds the exiftool tag assignments for every non-blank field of
// the effective metadata, in a fixed order.
func FieldArgs(meta model.EffectiveMetadata) []string {
	var args []string
	assign := func(tags []string, value string) {
		v := strings.TrimSpace(value)
		if v == "" {
			return
		}
		for _, tag := range tags {
			args = append(args, fmt.Sprintf("-%s=%s", tag, v))
		}
	}

	assign(AuthorTags, meta.Author)
	assign(TitleTags, meta.Title)
	assign(DescriptionTags, meta.Description)
	assign(AltTextTags, meta.AltText)
	assign(CopyrightTags, meta.Copyright)
	assign(LicenseTags, meta.LicenseURL)

	keywords := meta.KeywordList()
	for _, k := range keywords {
		for _, tag := range KeywordListTags {
			args = append(args, fmt.Sprintf("-%s+=%s", tag, k))
		}
	}
	if len(keywords) > 0 {
		args = append(args, fmt.Sprintf("-%s=%s", KeywordJoinedTag, strings.Join(keywords, ", ")))
	}
	return args
}

// GPSRef converts a signed decimal coordinate into the EXIF
// (hemisphere-reference, unsigned-magnitude) pair.
func GPSRef(value float64, isLatitude bool) (ref string, magnitude float64) {
	if isLatitude {
		ref = "N"
		if value < 0 {
			ref = "S"
		}
	} else {
		ref = "E"
		if value < 0 {
			ref = "W"
		}
	}
	if value < 0 {
		value = -value
	}
	return ref, value
}

// GPSArgs builds the coordinate assignments. Both latitude and longitude
// must be present and numeric; altitude is added only when numeric.
func GPSArgs(meta model.EffectiveMetadata) ([]string, bool) {
	lat, okLat := parseCoordinate(meta.GPSLatitude)
	lon, okLon := parseCoordinate(meta.GPSLongitude)
	if !okLat || !okLon {
		return nil, false
	}

	latRef, latVal := GPSRef(lat, true)
	lonRef, lonVal := GPSRef(lon, false)
	args := []string{
		fmt.Sprintf("-EXIF:GPSLatitudeRef=%s", latRef),
		fmt.Sprintf("-EXIF:GPSLatitude=%s", formatCoordinate(latVal)),
		fmt.Sprintf("-EXIF:GPSLongitudeRef=%s", lonRef),
		fmt.Sprintf("-EXIF:GPSLongitude=%s", formatCoordinate(lonVal)),
	}
	if alt, ok := parseCoordinate(meta.GPSAltitude); ok {
		args = append(args, fmt.Sprintf("-EXIF:GPSAltitude=%s", formatCoordinate(alt)))
	}
	return args, true
}

func parseCoordinate(s string) (float64, bool) {
	v := strings.TrimSpace(s)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
