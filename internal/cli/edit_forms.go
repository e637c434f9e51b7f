package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"

	"imgseo/internal/model"
	"imgseo/internal/profile"
)

type editFormKind int

const (
	editFormKindItem editFormKind = iota
	editFormKindDefaults
	editFormKindPolicy
)

type editFieldKind int

const (
	editFieldString editFieldKind = iota
	editFieldInt
	editFieldBool
)

type editFormField struct {
	Key      string
	Label    string
	Help     string
	Kind     editFieldKind
	Value    string
	Required bool
}

type editForm struct {
	Kind   editFormKind
	Title  string
	ItemID string // set when editing an existing work item
	Fields []editFormField
	Index  int
	Input  textinput.Model
	Error  string
	Saving bool
}

func newItemForm(existing *model.WorkItem, width int) *editForm {
	f := &editForm{Kind: editFormKindItem}
	if existing == nil {
		f.Title = "Add Image"
		f.Fields = []editFormField{
			{Key: "path", Label: "Source Path", Help: "jpg, jpeg, png, tif, tiff or webp", Kind: editFieldString, Required: true},
			{Key: "final_name", Label: "Final Name", Help: "Output stem; empty keeps the source name", Kind: editFieldString},
			{Key: "title", Label: "Title", Help: "Overrides the batch default when set", Kind: editFieldString},
			{Key: "alt", Label: "Alt Text", Help: "Overrides the batch default when set", Kind: editFieldString},
			{Key: "desc", Label: "Description", Help: "Overrides the batch default when set", Kind: editFieldString},
			{Key: "keywords", Label: "Keywords", Help: "Comma-separated; overrides the batch default when set", Kind: editFieldString},
		}
	} else {
		f.Title = "Edit Image: " + existing.SourcePath
		f.ItemID = existing.ID
		f.Fields = []editFormField{
			{Key: "path", Label: "Source Path", Help: "jpg, jpeg, png, tif, tiff or webp", Kind: editFieldString, Required: true, Value: existing.SourcePath},
			{Key: "final_name", Label: "Final Name", Help: "Output stem; empty keeps the source name", Kind: editFieldString, Value: existing.FinalNameOverride},
			{Key: "title", Label: "Title", Help: "Overrides the batch default when set", Kind: editFieldString, Value: existing.Overrides.Title},
			{Key: "alt", Label: "Alt Text", Help: "Overrides the batch default when set", Kind: editFieldString, Value: existing.Overrides.AltText},
			{Key: "desc", Label: "Description", Help: "Overrides the batch default when set", Kind: editFieldString, Value: existing.Overrides.Description},
			{Key: "keywords", Label: "Keywords", Help: "Comma-separated; overrides the batch default when set", Kind: editFieldString, Value: existing.Overrides.Keywords},
		}
	}
	f.initInput(width)
	return f
}

func newDefaultsForm(d model.BatchDefaults, width int) *editForm {
	f := &editForm{
		Kind:  editFormKindDefaults,
		Title: "Batch Defaults",
		Fields: []editFormField{
			{Key: "author", Label: "Author", Help: "Written into creator/artist tags", Kind: editFieldString, Value: d.Author},
			{Key: "title", Label: "Title", Kind: editFieldString, Value: d.Title},
			{Key: "alt", Label: "Alt Text", Kind: editFieldString, Value: d.AltText},
			{Key: "desc", Label: "Description", Kind: editFieldString, Value: d.Description},
			{Key: "keywords", Label: "Keywords", Help: "Comma-separated", Kind: editFieldString, Value: d.Keywords},
			{Key: "copyright", Label: "Copyright", Kind: editFieldString, Value: d.Copyright},
			{Key: "license", Label: "License URL", Kind: editFieldString, Value: d.LicenseURL},
			{Key: "gps_lat", Label: "GPS Latitude", Help: "Signed decimal, e.g. -12.0464", Kind: editFieldString, Value: d.GPSLatitude},
			{Key: "gps_lon", Label: "GPS Longitude", Help: "Signed decimal, e.g. -77.0428", Kind: editFieldString, Value: d.GPSLongitude},
			{Key: "gps_alt", Label: "GPS Altitude", Help: "Meters; optional", Kind: editFieldString, Value: d.GPSAltitude},
		},
	}
	f.initInput(width)
	return f
}

func newPolicyForm(p profile.Profile, width int) *editForm {
	c := p.Config
	f := &editForm{
		Kind:  editFormKindPolicy,
		Title: "Output Policy",
		Fields: []editFormField{
			{Key: "output_dir", Label: "Output Dir", Kind: editFieldString, Required: true, Value: p.OutputDir},
			{Key: "exiftool", Label: "Exiftool Binary", Help: "Name on PATH or explicit path", Kind: editFieldString, Value: p.ExiftoolBin},
			{Key: "jpg_q", Label: "JPEG Quality", Help: "60-100", Kind: editFieldInt, Value: strconv.Itoa(c.JPEGQuality)},
			{Key: "webp_q", Label: "WEBP Quality", Help: "60-100", Kind: editFieldInt, Value: strconv.Itoa(c.WEBPQuality)},
			{Key: "max_w", Label: "Max Width", Help: "Pixels; 0 = unbounded", Kind: editFieldInt, Value: strconv.Itoa(c.MaxWidth)},
			{Key: "max_h", Label: "Max Height", Help: "Pixels; 0 = unbounded", Kind: editFieldInt, Value: strconv.Itoa(c.MaxHeight)},
			{Key: "convert", Label: "Convert To JPEG", Help: "PNG/TIFF/WEBP sources become JPEG", Kind: editFieldBool, Value: boolToYN(c.ConvertToJPEG)},
			{Key: "webp", Label: "Make WEBP Sibling", Kind: editFieldBool, Value: boolToYN(c.MakeWebp)},
			{Key: "flatten", Label: "Flatten To White", Help: "Composites transparency onto white", Kind: editFieldBool, Value: boolToYN(c.FlattenWhite)},
			{Key: "strip", Label: "Strip Metadata", Kind: editFieldBool, Value: boolToYN(c.StripMetadata)},
			{Key: "dpi96", Label: "Force 96 DPI", Kind: editFieldBool, Value: boolToYN(c.ForceDPI96)},
			{Key: "overwrite", Label: "Overwrite Outputs", Kind: editFieldBool, Value: boolToYN(c.Overwrite)},
			{Key: "rename", Label: "Rename After Metadata", Help: "Appends -meta to the primary output", Kind: editFieldBool, Value: boolToYN(c.RenameAfterMeta)},
			{Key: "delete_source", Label: "Delete Source", Help: "Removes the original after success", Kind: editFieldBool, Value: boolToYN(c.DeleteSource)},
		},
	}
	f.initInput(width)
	return f
}

func (f *editForm) initInput(width int) {
	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 1024
	input.Width = clampInt(width-8, 20, 120)
	f.Input = input
	f.loadFieldIntoInput()
	f.Input.Focus()
}

func (f *editForm) resizeInput(width int) {
	f.Input.Width = clampInt(width-8, 20, 120)
}

func (f *editForm) currentField() editFormField {
	if len(f.Fields) == 0 {
		return editFormField{}
	}
	if f.Index < 0 {
		f.Index = 0
	}
	if f.Index >= len(f.Fields) {
		f.Index = len(f.Fields) - 1
	}
	return f.Fields[f.Index]
}

func (f *editForm) commitInput() {
	if f == nil || len(f.Fields) == 0 {
		return
	}
	f.Fields[f.Index].Value = strings.TrimSpace(f.Input.Value())
}

func (f *editForm) loadFieldIntoInput() {
	if f == nil || len(f.Fields) == 0 {
		return
	}
	f.Input.SetValue(f.Fields[f.Index].Value)
	f.Input.CursorEnd()
}

func (f *editForm) toggleBoolField() {
	if f == nil || len(f.Fields) == 0 {
		return
	}
	curr := f.Fields[f.Index]
	if curr.Kind != editFieldBool {
		return
	}
	v, ok := parseBool(curr.Value)
	if !ok {
		v = false
	}
	curr.Value = boolToYN(!v)
	f.Fields[f.Index] = curr
	f.loadFieldIntoInput()
}

func (f *editForm) setBoolField(v bool) {
	if f == nil || len(f.Fields) == 0 {
		return
	}
	curr := f.Fields[f.Index]
	if curr.Kind != editFieldBool {
		return
	}
	curr.Value = boolToYN(v)
	f.Fields[f.Index] = curr
	f.loadFieldIntoInput()
}

// values validates every field and returns them keyed by Key.
func (f *editForm) values() (map[string]string, error) {
	vals := make(map[string]string, len(f.Fields))
	for _, field := range f.Fields {
		v := strings.TrimSpace(field.Value)
		if field.Required && v == "" {
			return nil, fmt.Errorf("%s is required", strings.ToLower(field.Label))
		}
		switch field.Kind {
		case editFieldInt:
			if v == "" {
				v = "0"
			}
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%s must be an integer >= 0", strings.ToLower(field.Label))
			}
		case editFieldBool:
			if _, ok := parseBool(v); !ok {
				return nil, fmt.Errorf("%s must be y or n", strings.ToLower(field.Label))
			}
		}
		vals[field.Key] = v
	}
	return vals, nil
}

// apply folds the form back into the profile and returns the updated copy
// with a status message.
func (f *editForm) apply(p profile.Profile) (profile.Profile, string, error) {
	if f == nil {
		return p, "", errors.New("internal form error")
	}
	vals, err := f.values()
	if err != nil {
		return p, "", err
	}

	switch f.Kind {
	case editFormKindItem:
		item := model.NewWorkItem(vals["path"])
		if f.ItemID != "" {
			item.ID = f.ItemID
		}
		item.FinalNameOverride = vals["final_name"]
		item.Overrides = model.MetadataOverrides{
			Title:       vals["title"],
			AltText:     vals["alt"],
			Description: vals["desc"],
			Keywords:    vals["keywords"],
		}
		if err := item.CheckSupported(); err != nil {
			return p, "", err
		}
		replaced := false
		for i := range p.Items {
			if p.Items[i].ID == item.ID {
				p.Items[i] = item
				replaced = true
				break
			}
		}
		if !replaced {
			p.Items = append(p.Items, item)
		}
		if replaced {
			return p, "saved: " + item.SourcePath, nil
		}
		return p, "saved: added " + item.SourcePath, nil

	case editFormKindDefaults:
		p.Defaults = model.BatchDefaults{
			Author:       vals["author"],
			Title:        vals["title"],
			AltText:      vals["alt"],
			Description:  vals["desc"],
			Keywords:     vals["keywords"],
			Copyright:    vals["copyright"],
			LicenseURL:   vals["license"],
			GPSLatitude:  vals["gps_lat"],
			GPSLongitude: vals["gps_lon"],
			GPSAltitude:  vals["gps_alt"],
		}
		return p, "saved: batch defaults", nil

	case editFormKindPolicy:
		jpgQ, _ := strconv.Atoi(vals["jpg_q"])
		webpQ, _ := strconv.Atoi(vals["webp_q"])
		maxW, _ := strconv.Atoi(vals["max_w"])
		maxH, _ := strconv.Atoi(vals["max_h"])
		convert, _ := parseBool(vals["convert"])
		webp, _ := parseBool(vals["webp"])
		flatten, _ := parseBool(vals["flatten"])
		strip, _ := parseBool(vals["strip"])
		dpi96, _ := parseBool(vals["dpi96"])
		overwrite, _ := parseBool(vals["overwrite"])
		rename, _ := parseBool(vals["rename"])
		deleteSource, _ := parseBool(vals["delete_source"])

		p.OutputDir = vals["output_dir"]
		p.ExiftoolBin = vals["exiftool"]
		p.Config = model.JobConfig{
			JPEGQuality:     jpgQ,
			WEBPQuality:     webpQ,
			MaxWidth:        maxW,
			MaxHeight:       maxH,
			FlattenWhite:    flatten,
			ConvertToJPEG:   convert,
			MakeWebp:        webp,
			StripMetadata:   strip,
			ForceDPI96:      dpi96,
			DeleteSource:    deleteSource,
			Overwrite:       overwrite,
			RenameAfterMeta: rename,
		}
		return profile.Normalize(p), "saved: output policy", nil
	}
	return p, "", errors.New("internal form error")
}
