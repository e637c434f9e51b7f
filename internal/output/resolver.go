// Package output owns every on-disk name an item produces: target
// resolution with an up-front collision check, atomic materialization of
// encoded bytes, and the post-metadata rename that busts downstream caches.
package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrCollision is returned when a target exists and overwriting is disabled.
// It is raised before any encoding or writing happens.
var ErrCollision = errors.New("output file already exists")

// renameCounterCap bounds the disambiguation counter for the post-metadata
// rename. Hitting it is reported as an error instead of looping forever.
const renameCounterCap = 999

// metaSuffix is appended to the stem by the post-metadata rename so that
// thumbnail and asset caches treat the file as brand new content.
const metaSuffix = "-meta"

// Targets are the resolved output paths for one work item.
type Targets struct {
	Primary string
	Webp    string // empty when no WEBP sibling is requested
}

// Paths returns the non-empty target paths, primary first.
func (t Targets) Paths() []string {
	out := []string{t.Primary}
	if t.Webp != "" {
		out = append(out, t.Webp)
	}
	return out
}

// Resolve computes the target paths for a final stem and performs the
// pre-flight collision check. With overwrite disabled it fails before any
// transformation work is spent and performs zero filesystem writes.
func Resolve(outputDir, finalStem, primaryExt string, makeWebp, overwrite bool) (Targets, error) {
	stem := strings.TrimSpace(finalStem)
	if stem == "" {
		return Targets{}, fmt.Errorf("final stem is empty")
	}

	t := Targets{Primary: filepath.Join(outputDir, stem+"."+primaryExt)}
	if makeWebp && primaryExt != "webp" {
		t.Webp = filepath.Join(outputDir, stem+".webp")
	}

	if !overwrite {
		for _, p := range t.Paths() {
			if _, err := os.Stat(p); err == nil {
				return Targets{}, fmt.Errorf("%w: %s", ErrCollision, filepath.Base(p))
			}
		}
	}
	return t, nil
}

// Materialize writes encoded bytes to their final path atomically: the data
// goes to a sibling temp file first and a single rename moves it into place.
// After a crash the final path either does not exist or is complete.
func Materialize(path string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("refusing to materialize empty output %s", path)
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".imgseo-out-*")
	if err != nil {
		return fmt.Errorf("create temp output for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp output for %s: %w", path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("chmod temp output for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp output for %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("atomic rename for %s: %w", path, err)
	}
	return nil
}

// RenameAfterMeta performs the second atomic move after metadata has been
// written: <stem>-meta.<ext>, with a numeric counter appended while the
// disambiguated name is taken. Returns the new path.
func RenameAfterMeta(path string) (string, error) {
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)

	target := filepath.Join(dir, stem+metaSuffix+ext)
	target, err := uniquePath(target)
	if err != nil {
		return "", err
	}
	if err := os.Rename(path, target); err != nil {
		return "", fmt.Errorf("rename after metadata %s: %w", path, err)
	}
	return target, nil
}

// uniquePath appends _2, _3, ... until the name is free, up to the cap.
func uniquePath(path string) (string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path, nil
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for i := 2; i <= renameCounterCap; i++ {
		cand := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if _, err := os.Stat(cand); os.IsNotExist(err) {
			return cand, nil
		}
	}
	return "", fmt.Errorf("no free disambiguated name for %s after %d attempts", path, renameCounterCap)
}
