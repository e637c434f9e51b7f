// Package profile persists the operator's batch setup: tool path, output
// directory, transformation policy, batch-wide metadata defaults and the
// work list with per-item overrides. One JSON file, written atomically.
package profile

import (
	"fmt"
	"strings"

	"imgseo/internal/model"
)

const (
	DefaultJPEGQuality = 86
	DefaultWEBPQuality = 82
	DefaultMaxWidth    = 1600
	DefaultExiftoolBin = "exiftool"

	minQuality = 60
	maxQuality = 100
)

// Profile is the persisted record. The core does not interpret or version
// it beyond normalizing loaded values into valid ranges.
type Profile struct {
	ExiftoolBin string              `json:"exiftool"`
	OutputDir   string              `json:"outdir"`
	Config      model.JobConfig     `json:"config"`
	Defaults    model.BatchDefaults `json:"defaults"`
	Items       []model.WorkItem    `json:"files"`
}

// New returns a profile with the stock policy: convert to JPEG, flatten to
// white, produce WEBP siblings, strip metadata, force 96 DPI, overwrite and
// rename after metadata, keep sources.
func New() Profile {
	return Profile{
		ExiftoolBin: DefaultExiftoolBin,
		OutputDir:   "salida",
		Config: model.JobConfig{
			JPEGQuality:     DefaultJPEGQuality,
			WEBPQuality:     DefaultWEBPQuality,
			MaxWidth:        DefaultMaxWidth,
			MaxHeight:       0,
			FlattenWhite:    true,
			ConvertToJPEG:   true,
			MakeWebp:        true,
			StripMetadata:   true,
			ForceDPI96:      true,
			DeleteSource:    false,
			Overwrite:       true,
			RenameAfterMeta: true,
		},
	}
}

func Load(path string) (Profile, error) {
	var p Profile
	if err := ReadJSON(path, &p); err != nil {
		return Profile{}, err
	}
	return Normalize(p), nil
}

func Save(path string, p Profile) error {
	return WriteJSON(path, Normalize(p))
}

// Normalize clamps qualities into the 60-100 range, fills blank tool paths
// and assigns IDs to items loaded from hand-edited files.
func Normalize(raw Profile) Profile {
	norm := raw
	if strings.TrimSpace(norm.ExiftoolBin) == "" {
		norm.ExiftoolBin = DefaultExiftoolBin
	}
	norm.Config.JPEGQuality = clampQuality(norm.Config.JPEGQuality, DefaultJPEGQuality)
	norm.Config.WEBPQuality = clampQuality(norm.Config.WEBPQuality, DefaultWEBPQuality)
	if norm.Config.MaxWidth < 0 {
		norm.Config.MaxWidth = 0
	}
	if norm.Config.MaxHeight < 0 {
		norm.Config.MaxHeight = 0
	}
	items := make([]model.WorkItem, 0, len(norm.Items))
	for _, it := range norm.Items {
		if strings.TrimSpace(it.SourcePath) == "" {
			continue
		}
		if strings.TrimSpace(it.ID) == "" {
			fresh := model.NewWorkItem(it.SourcePath)
			it.ID = fresh.ID
		}
		items = append(items, it)
	}
	norm.Items = items
	return norm
}

// Validate reports the first problem that would make a run impossible.
func Validate(p Profile) error {
	if strings.TrimSpace(p.OutputDir) == "" {
		return fmt.Errorf("profile has no output directory")
	}
	if len(p.Items) == 0 {
		return fmt.Errorf("profile has no work items")
	}
	for _, it := range p.Items {
		if err := it.CheckSupported(); err != nil {
			return err
		}
	}
	return nil
}

func clampQuality(q, fallback int) int {
	if q == 0 {
		return fallback
	}
	if q < minQuality {
		return minQuality
	}
	if q > maxQuality {
		return maxQuality
	}
	return q
}
