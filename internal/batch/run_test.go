package batch

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"imgseo/internal/model"
	"imgseo/internal/output"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xCC
	}
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
}

// installFakeExiftool places a shell script named exiftool on PATH.
func installFakeExiftool(t *testing.T, script string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "exiftool")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("install fake exiftool: %v", err)
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func baseConfig() model.JobConfig {
	return model.JobConfig{
		JPEGQuality:   86,
		WEBPQuality:   82,
		MaxWidth:      1600,
		FlattenWhite:  true,
		ConvertToJPEG: true,
		StripMetadata: true,
		ForceDPI96:    true,
	}
}

func runOptions(t *testing.T, cfg model.JobConfig, sources ...string) Options {
	t.Helper()
	items := make([]model.WorkItem, 0, len(sources))
	for _, s := range sources {
		items = append(items, model.NewWorkItem(s))
	}
	return Options{
		Items:       items,
		Defaults:    model.BatchDefaults{Author: "Ana Ruiz", Title: "Costa"},
		Config:      cfg,
		OutputDir:   t.TempDir(),
		ExiftoolBin: "exiftool",
	}
}

func TestRun_FailureIsolation(t *testing.T) {
	installFakeExiftool(t, "#!/bin/sh\nexit 0\n")

	srcDir := t.TempDir()
	good1 := filepath.Join(srcDir, "uno.png")
	corrupt := filepath.Join(srcDir, "dos.png")
	good2 := filepath.Join(srcDir, "tres.png")
	writePNG(t, good1, 8, 8)
	if err := os.WriteFile(corrupt, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	writePNG(t, good2, 8, 8)

	opts := runOptions(t, baseConfig(), good1, corrupt, good2)
	ch := NewChannel()
	sum, err := Run(context.Background(), opts, ch)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if sum.Processed != 3 || sum.Succeeded != 2 || sum.Failed != 1 {
		t.Fatalf("summary = processed %d ok %d failed %d, want 3/2/1",
			sum.Processed, sum.Succeeded, sum.Failed)
	}
	if sum.Results[1].Succeeded() {
		t.Fatal("corrupt item reported as success")
	}
	if sum.Results[1].Error == "" {
		t.Fatal("failed item carries no error message")
	}
	// The item after the failure still ran.
	if !sum.Results[2].Succeeded() {
		t.Fatalf("item after failure did not succeed: %s", sum.Results[2].Error)
	}

	for _, name := range []string{"uno.jpg", "tres.jpg"} {
		if _, err := os.Stat(filepath.Join(opts.OutputDir, name)); err != nil {
			t.Errorf("missing output %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(opts.OutputDir, ReportFileName)); err != nil {
		t.Errorf("missing run report: %v", err)
	}
}

func TestRun_MetadataFailureIsNonFatal(t *testing.T) {
	installFakeExiftool(t, "#!/bin/sh\necho 'simulated tool failure' >&2\nexit 1\n")

	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "playa.png")
	writePNG(t, src, 8, 8)

	opts := runOptions(t, baseConfig(), src)
	ch := NewChannel()
	sum, err := Run(context.Background(), opts, ch)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if sum.Succeeded != 1 {
		t.Fatalf("item failed on metadata diagnostics: %+v", sum.Results)
	}
	if len(sum.Results[0].Diagnostics) == 0 {
		t.Fatal("expected diagnostics from failing exiftool")
	}
	sawWarn := false
	for _, msg := range ch.Drain() {
		if lm, ok := msg.(LogMsg); ok && strings.Contains(lm.Line, "warn: metadata step") {
			sawWarn = true
		}
	}
	if !sawWarn {
		t.Fatal("no warning log line for failed metadata step")
	}
	if _, err := os.Stat(filepath.Join(opts.OutputDir, "playa.jpg")); err != nil {
		t.Fatalf("output missing after metadata failure: %v", err)
	}
}

func TestRun_RenameAfterMetadata(t *testing.T) {
	installFakeExiftool(t, "#!/bin/sh\nexit 0\n")

	src := filepath.Join(t.TempDir(), "costa.png")
	writePNG(t, src, 8, 8)

	cfg := baseConfig()
	cfg.RenameAfterMeta = true
	opts := runOptions(t, cfg, src)
	sum, err := Run(context.Background(), opts, NewChannel())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := filepath.Join(opts.OutputDir, "costa-meta.jpg")
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("renamed output missing: %v", err)
	}
	if sum.Results[0].Outputs[0] != want {
		t.Fatalf("result records %s, want %s", sum.Results[0].Outputs[0], want)
	}
	if _, err := os.Stat(filepath.Join(opts.OutputDir, "costa.jpg")); !os.IsNotExist(err) {
		t.Fatal("pre-rename path still present")
	}
}

func TestRun_DeleteSource(t *testing.T) {
	installFakeExiftool(t, "#!/bin/sh\nexit 0\n")

	for _, del := range []bool{true, false} {
		src := filepath.Join(t.TempDir(), "rio.png")
		writePNG(t, src, 8, 8)

		cfg := baseConfig()
		cfg.DeleteSource = del
		opts := runOptions(t, cfg, src)
		if _, err := Run(context.Background(), opts, NewChannel()); err != nil {
			t.Fatalf("Run: %v", err)
		}

		_, err := os.Stat(src)
		if del && !os.IsNotExist(err) {
			t.Errorf("delete_source=true: source still present (stat err %v)", err)
		}
		if !del && err != nil {
			t.Errorf("delete_source=false: source gone: %v", err)
		}
	}
}

func TestRun_CollisionWithoutOverwrite(t *testing.T) {
	installFakeExiftool(t, "#!/bin/sh\nexit 0\n")

	src := filepath.Join(t.TempDir(), "lago.png")
	writePNG(t, src, 8, 8)

	opts := runOptions(t, baseConfig(), src)
	if _, err := Run(context.Background(), opts, NewChannel()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	opts.Items = []model.WorkItem{model.NewWorkItem(src)}
	sum, err := Run(context.Background(), opts, NewChannel())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if sum.Failed != 1 {
		t.Fatalf("second run did not fail on collision: %+v", sum.Results)
	}
	if !strings.Contains(sum.Results[0].Error, output.ErrCollision.Error()) {
		t.Fatalf("error %q does not report a collision", sum.Results[0].Error)
	}

	// With overwrite enabled the rerun succeeds.
	opts.Config.Overwrite = true
	opts.Items = []model.WorkItem{model.NewWorkItem(src)}
	sum, err = Run(context.Background(), opts, NewChannel())
	if err != nil {
		t.Fatalf("overwrite run: %v", err)
	}
	if sum.Succeeded != 1 {
		t.Fatalf("overwrite run failed: %+v", sum.Results)
	}
}

func TestRun_CanceledBeforeFirstItem(t *testing.T) {
	installFakeExiftool(t, "#!/bin/sh\nexit 0\n")

	src := filepath.Join(t.TempDir(), "mar.png")
	writePNG(t, src, 8, 8)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := runOptions(t, baseConfig(), src)
	sum, err := Run(ctx, opts, NewChannel())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !sum.Canceled {
		t.Fatal("summary not marked canceled")
	}
	if sum.Processed != 0 {
		t.Fatalf("processed %d items under canceled context", sum.Processed)
	}
	if _, err := os.Stat(filepath.Join(opts.OutputDir, "mar.jpg")); !os.IsNotExist(err) {
		t.Fatal("output produced under canceled context")
	}
}

func TestRun_UnsupportedExtensionFails(t *testing.T) {
	installFakeExiftool(t, "#!/bin/sh\nexit 0\n")

	src := filepath.Join(t.TempDir(), "anim.gif")
	if err := os.WriteFile(src, []byte("GIF89a"), 0o644); err != nil {
		t.Fatal(err)
	}

	opts := runOptions(t, baseConfig(), src)
	sum, err := Run(context.Background(), opts, NewChannel())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Failed != 1 {
		t.Fatalf("unsupported extension not rejected: %+v", sum.Results)
	}
}

func TestChannel_PreservesOrder(t *testing.T) {
	ch := NewChannel()
	ch.Logf("first")
	ch.Publish(ProgressMsg{Done: 1, Total: 2})
	ch.Logf("second")

	msgs := ch.Drain()
	if len(msgs) != 3 {
		t.Fatalf("drained %d messages, want 3", len(msgs))
	}
	if lm, ok := msgs[0].(LogMsg); !ok || lm.Line != "first" {
		t.Fatalf("msgs[0] = %#v", msgs[0])
	}
	if pm, ok := msgs[1].(ProgressMsg); !ok || pm.Done != 1 {
		t.Fatalf("msgs[1] = %#v", msgs[1])
	}
	if lm, ok := msgs[2].(LogMsg); !ok || lm.Line != "second" {
		t.Fatalf("msgs[2] = %#v", msgs[2])
	}
	if extra := ch.Drain(); len(extra) != 0 {
		t.Fatalf("second drain returned %d messages", len(extra))
	}
}

func TestRunner_RejectsSecondStart(t *testing.T) {
	// The fake tool sleeps so the first run is still in flight when the
	// second Start is attempted.
	installFakeExiftool(t, "#!/bin/sh\nsleep 1\nexit 0\n")

	src := filepath.Join(t.TempDir(), "isla.png")
	writePNG(t, src, 8, 8)

	opts := runOptions(t, baseConfig(), src)
	ch := NewChannel()
	var r Runner
	if err := r.Start(context.Background(), opts, ch); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := r.Start(context.Background(), opts, ch); err != ErrRunActive {
		t.Fatalf("second Start err = %v, want ErrRunActive", err)
	}

	deadline := time.Now().Add(10 * time.Second)
	for {
		done := false
		for _, msg := range ch.Drain() {
			if _, ok := msg.(DoneMsg); ok {
				done = true
			}
		}
		if done {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("run never published DoneMsg")
		}
		time.Sleep(20 * time.Millisecond)
	}
	if r.Active() {
		// Active flips after the deferred cleanup; give it a beat.
		time.Sleep(100 * time.Millisecond)
	}
	if r.Active() {
		t.Fatal("runner still active after DoneMsg")
	}
}
