// Package exiftool drives the external exiftool binary. Every write step is
// a separate invocation of the form
//
//	exiftool -overwrite_original [<tag>=<value> ...] <path>
//
// against an already-materialized file. A non-zero exit is captured as a
// diagnostic and reported to the caller; it never aborts the remaining
// steps, because a transformed image with partial metadata is still useful.
package exiftool

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"imgseo/internal/model"
)

// Step names reported in diagnostics and logs.
const (
	StepStrip      = "strip"
	StepResolution = "resolution"
	StepFields     = "fields"
	StepGPS        = "gps"
)

// StepResult is the structured outcome of one tool invocation.
type StepResult struct {
	Step       string
	OK         bool
	Skipped    bool
	Diagnostic string
}

// Client invokes a fixed exiftool binary. The binary path is resolved by the
// caller (flag, profile or environment) and passed in as a plain string.
type Client struct {
	Bin string
}

func NewClient(bin string) Client {
	b := strings.TrimSpace(bin)
	if b == "" {
		b = "exiftool"
	}
	return Client{Bin: b}
}

// CheckBinary reports whether the configured binary is runnable: an explicit
// path must exist, a bare name must be on PATH.
func (c Client) CheckBinary() error {
	if strings.ContainsRune(c.Bin, os.PathSeparator) {
		if _, err := os.Stat(c.Bin); err != nil {
			return fmt.Errorf("exiftool binary %s: %w", c.Bin, err)
		}
		return nil
	}
	if _, err := exec.LookPath(c.Bin); err != nil {
		return fmt.Errorf("exiftool is not installed or not on PATH: %w", err)
	}
	return nil
}

// Version runs `exiftool -ver` and returns the reported version string.
func (c Client) Version() (string, error) {
	out, _, err := c.run([]string{"-ver"})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// StripAll removes all pre-existing embedded metadata (-all=).
func (c Client) StripAll(path string) StepResult {
	return c.writeStep(StepStrip, []string{"-all="}, path)
}

// SetResolution96 normalizes horizontal/vertical resolution to 96 DPI.
func (c Client) SetResolution96(path string) StepResult {
	return c.writeStep(StepResolution, []string{
		"-XResolution=96",
		"-YResolution=96",
		"-ResolutionUnit=inches",
	}, path)
}

// WriteFields sets every non-blank descriptive field into all tag names
// mapped for it. With nothing to write the invocation is skipped.
func (c Client) WriteFields(path string, meta model.EffectiveMetadata) StepResult {
	args := FieldArgs(meta)
	if len(args) == 0 {
		return StepResult{Step: StepFields, OK: true, Skipped: true}
	}
	return c.writeStep(StepFields, args, path)
}

// WriteGPS writes the coordinate tags when both latitude and longitude are
// present and numeric; otherwise the step is skipped.
func (c Client) WriteGPS(path string, meta model.EffectiveMetadata) StepResult {
	args, ok := GPSArgs(meta)
	if !ok {
		return StepResult{Step: StepGPS, OK: true, Skipped: true}
	}
	return c.writeStep(StepGPS, args, path)
}

// WriteAll runs the ordered metadata sequence against one materialized file:
// strip (policy), resolution (policy), descriptive fields, GPS. Every step
// runs regardless of earlier diagnostics.
func (c Client) WriteAll(path string, meta model.EffectiveMetadata, cfg model.JobConfig) []StepResult {
	results := make([]StepResult, 0, 4)
	if cfg.StripMetadata {
		results = append(results, c.StripAll(path))
	}
	if cfg.ForceDPI96 {
		results = append(results, c.SetResolution96(path))
	}
	results = append(results, c.WriteFields(path, meta))
	results = append(results, c.WriteGPS(path, meta))
	return results
}

// Dump reads back the descriptive tags of a finished file for inspection.
func (c Client) Dump(path string) (string, error) {
	args := []string{"-G1", "-a", "-s"}
	for _, f := range dumpFields {
		args = append(args, "-"+f)
	}
	args = append(args, path)
	out, stderr, err := c.run(args)
	if err != nil {
		if strings.TrimSpace(stderr) != "" {
			return "", fmt.Errorf("exiftool dump %s: %s", path, strings.TrimSpace(stderr))
		}
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return strings.TrimSpace(stderr), nil
	}
	return strings.TrimSpace(out), nil
}

func (c Client) writeStep(step string, tagArgs []string, path string) StepResult {
	args := append([]string{"-overwrite_original"}, tagArgs...)
	args = append(args, path)
	_, stderr, err := c.run(args)
	if err != nil {
		diag := strings.TrimSpace(stderr)
		if diag == "" {
			diag = err.Error()
		}
		return StepResult{Step: step, OK: false, Diagnostic: diag}
	}
	return StepResult{Step: step, OK: true}
}

func (c Client) run(args []string) (stdout, stderr string, err error) {
	cmd := exec.Command(c.Bin, args...)
	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	if runErr := cmd.Run(); runErr != nil {
		return outBuf.String(), errBuf.String(),
			fmt.Errorf("exiftool failed: %w: %s", runErr, strings.TrimSpace(errBuf.String()))
	}
	return outBuf.String(), errBuf.String(), nil
}

var dumpFields = []string{
	"Artist", "XPAuthor", "XPTitle", "XPComment", "XPKeywords", "Copyright",
	"Creator", "Title", "Description", "Caption-Abstract", "Rights",
	"AltTextAccessibility", "GPSLatitude", "GPSLongitude", "GPSAltitude",
	"XResolution", "YResolution", "ResolutionUnit",
}
