package model

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// SupportedExtensions is the source allow-list. Lookup keys are lowercase
// extensions without the leading dot.
var SupportedExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"tif":  true,
	"tiff": true,
	"webp": true,
}

// WorkItem is one source image in the batch. It is created when added to the
// work list and read-only while a run is in flight.
type WorkItem struct {
	ID                string            `json:"id"`
	SourcePath        string            `json:"path"`
	FinalNameOverride string            `json:"final_name,omitempty"`
	Overrides         MetadataOverrides `json:"overrides,omitempty"`
}

// MetadataOverrides are the per-item fields that may shadow batch defaults.
// A field participates in the merge only when non-blank.
type MetadataOverrides struct {
	Title       string `json:"title,omitempty"`
	AltText     string `json:"alt,omitempty"`
	Description string `json:"desc,omitempty"`
	Keywords    string `json:"keywords,omitempty"`
}

// BatchDefaults is the batch-wide metadata applied wherever an item override
// is blank. Immutable for the duration of one run.
type BatchDefaults struct {
	Author       string `json:"author"`
	Title        string `json:"title"`
	AltText      string `json:"alt"`
	Description  string `json:"desc"`
	Keywords     string `json:"keywords"`
	Copyright    string `json:"copyright"`
	LicenseURL   string `json:"license"`
	GPSLatitude  string `json:"gps_lat"`
	GPSLongitude string `json:"gps_lon"`
	GPSAltitude  string `json:"gps_alt"`
}

// JobConfig is the run-wide transformation and output policy. Immutable for
// the run.
type JobConfig struct {
	JPEGQuality     int  `json:"jpg_q"`
	WEBPQuality     int  `json:"webp_q"`
	MaxWidth        int  `json:"max_w"`
	MaxHeight       int  `json:"max_h"`
	FlattenWhite    bool `json:"force_white"`
	ConvertToJPEG   bool `json:"convert_png"`
	MakeWebp        bool `json:"make_webp"`
	StripMetadata   bool `json:"clean_all"`
	ForceDPI96      bool `json:"set_dpi96"`
	DeleteSource    bool `json:"delete_source"`
	Overwrite       bool `json:"overwrite"`
	RenameAfterMeta bool `json:"rename_after_meta"`
}

// EffectiveMetadata is the metadata actually written to an output file:
// per-item overrides merged over batch defaults. Derived, never persisted.
type EffectiveMetadata struct {
	Author       string
	Title        string
	AltText      string
	Description  string
	Keywords     string
	Copyright    string
	LicenseURL   string
	GPSLatitude  string
	GPSLongitude string
	GPSAltitude  string
}

// NewWorkItem builds an item for a source path with a fresh ID. The final
// stem defaults to the source base name with the extension stripped.
func NewWorkItem(sourcePath string) WorkItem {
	return WorkItem{
		ID:         uuid.NewString(),
		SourcePath: sourcePath,
	}
}

// FinalStem returns the stem used for all outputs derived from the item.
func (w WorkItem) FinalStem() string {
	stem := strings.TrimSpace(w.FinalNameOverride)
	if stem != "" {
		return stem
	}
	base := filepath.Base(w.SourcePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// SourceExt returns the lowercase source extension without the dot.
func (w WorkItem) SourceExt() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(w.SourcePath)), ".")
}

// CheckSupported rejects items whose extension is outside the allow-list
// before any transformation work starts.
func (w WorkItem) CheckSupported() error {
	ext := w.SourceExt()
	if !SupportedExtensions[ext] {
		return fmt.Errorf("%w: .%s (%s)", ErrUnsupportedFormat, ext, filepath.Base(w.SourcePath))
	}
	return nil
}

// MergeMetadata merges the item's overrides over the batch defaults field by
// field. An override wins only when non-blank after trimming.
func MergeMetadata(item WorkItem, defaults BatchDefaults) EffectiveMetadata {
	return EffectiveMetadata{
		Author:       strings.TrimSpace(defaults.Author),
		Title:        firstNonBlank(item.Overrides.Title, defaults.Title),
		AltText:      firstNonBlank(item.Overrides.AltText, defaults.AltText),
		Description:  firstNonBlank(item.Overrides.Description, defaults.Description),
		Keywords:     firstNonBlank(item.Overrides.Keywords, defaults.Keywords),
		Copyright:    strings.TrimSpace(defaults.Copyright),
		LicenseURL:   strings.TrimSpace(defaults.LicenseURL),
		GPSLatitude:  strings.TrimSpace(defaults.GPSLatitude),
		GPSLongitude: strings.TrimSpace(defaults.GPSLongitude),
		GPSAltitude:  strings.TrimSpace(defaults.GPSAltitude),
	}
}

// KeywordList splits the comma-separated keywords into trimmed, non-empty
// entries.
func (m EffectiveMetadata) KeywordList() []string {
	parts := strings.Split(m.Keywords, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if k := strings.TrimSpace(p); k != "" {
			out = append(out, k)
		}
	}
	return out
}

func firstNonBlank(override, fallback string) string {
	if v := strings.TrimSpace(override); v != "" {
		return v
	}
	return strings.TrimSpace(fallback)
}
