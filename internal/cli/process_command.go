package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"imgseo/internal/batch"
	"imgseo/internal/model"
	"imgseo/internal/profile"
)

// DefaultProfilePath is where commands look for the profile JSON unless
// --profile points elsewhere.
const DefaultProfilePath = "imgseo.json"

func runProcess(args []string) error {
	fs := flag.NewFlagSet("process", flag.ContinueOnError)
	profilePath := fs.String("profile", DefaultProfilePath, "profile JSON path")
	outDir := fs.String("out", "", "output directory override")
	exiftoolBin := fs.String("exiftool", "", "exiftool binary override")
	maxWidth := fs.Int("max-width", -1, "max output width in px (0 = unbounded, -1 = profile)")
	maxHeight := fs.Int("max-height", -1, "max output height in px (0 = unbounded, -1 = profile)")
	jpgQuality := fs.Int("jpg-quality", 0, "JPEG quality 60-100 (0 = profile)")
	webpQuality := fs.Int("webp-quality", 0, "WEBP quality 60-100 (0 = profile)")
	webp := fs.String("webp", "auto", "produce WEBP siblings: auto|yes|no")
	overwrite := fs.String("overwrite", "auto", "overwrite existing outputs: auto|yes|no")
	deleteSource := fs.String("delete-source", "auto", "delete sources after success: auto|yes|no")
	rename := fs.String("rename", "auto", "rename outputs after metadata: auto|yes|no")
	showProgress := fs.Bool("progress", true, "show live progress line")
	jsonOut := fs.Bool("json", false, "print JSON summary")

	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := loadProcessProfile(strings.TrimSpace(*profilePath), fs.Args())
	if err != nil {
		return err
	}

	p.OutputDir = firstNonEmpty(strings.TrimSpace(*outDir), os.Getenv("IMGSEO_OUTPUT_DIR"), p.OutputDir)
	p.ExiftoolBin = firstNonEmpty(strings.TrimSpace(*exiftoolBin), os.Getenv("IMGSEO_EXIFTOOL"), p.ExiftoolBin)
	if *maxWidth >= 0 {
		p.Config.MaxWidth = *maxWidth
	}
	if *maxHeight >= 0 {
		p.Config.MaxHeight = *maxHeight
	}
	if *jpgQuality > 0 {
		p.Config.JPEGQuality = *jpgQuality
	}
	if *webpQuality > 0 {
		p.Config.WEBPQuality = *webpQuality
	}
	if err := applyTriState(&p.Config.MakeWebp, *webp, "--webp"); err != nil {
		return err
	}
	if err := applyTriState(&p.Config.Overwrite, *overwrite, "--overwrite"); err != nil {
		return err
	}
	if err := applyTriState(&p.Config.DeleteSource, *deleteSource, "--delete-source"); err != nil {
		return err
	}
	if err := applyTriState(&p.Config.RenameAfterMeta, *rename, "--rename"); err != nil {
		return err
	}
	p = profile.Normalize(p)
	if err := profile.Validate(p); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ch := batch.NewChannel()
	var runner batch.Runner
	if err := runner.Start(ctx, batch.Options{
		Items:       p.Items,
		Defaults:    p.Defaults,
		Config:      p.Config,
		OutputDir:   p.OutputDir,
		ExiftoolBin: p.ExiftoolBin,
	}, ch); err != nil {
		return err
	}

	sum := consumeRun(ch, *showProgress && !*jsonOut)

	if *jsonOut {
		return printJSON(sum)
	}
	fmt.Printf("OK=%d failed=%d\n", sum.Succeeded, sum.Failed)
	if sum.Canceled {
		fmt.Println("run canceled before all items were processed")
	}
	if sum.Failed > 0 {
		return fmt.Errorf("%d of %d items failed", sum.Failed, sum.Total)
	}
	return nil
}

// loadProcessProfile reads the profile and appends any positional source
// paths as extra work items. Without a profile file, positional paths alone
// make an ad-hoc batch with the stock policy.
func loadProcessProfile(path string, extra []string) (profile.Profile, error) {
	p, err := profile.Load(path)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist) && len(extra) > 0:
		p = profile.New()
	case errors.Is(err, os.ErrNotExist):
		return profile.Profile{}, fmt.Errorf("profile %s not found; run `imgseo profile init` or pass source files", path)
	default:
		return profile.Profile{}, err
	}
	for _, src := range extra {
		if strings.TrimSpace(src) == "" {
			continue
		}
		p.Items = append(p.Items, model.NewWorkItem(src))
	}
	return p, nil
}

func applyTriState(target *bool, raw, flagName string) error {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "auto":
		return nil
	case "y", "yes", "true":
		*target = true
		return nil
	case "n", "no", "false":
		*target = false
		return nil
	default:
		return errors.New(flagName + " must be auto, yes, or no")
	}
}
