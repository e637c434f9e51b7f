// Package batch drives the full pipeline across a work list: one background
// worker, strictly sequential, item failures isolated, progress and log
// lines relayed through a Channel.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"imgseo/internal/exiftool"
	"imgseo/internal/model"
	"imgseo/internal/output"
	"imgseo/internal/profile"
	"imgseo/internal/transform"
)

// ReportFileName is the per-run result record written into the output
// directory when the run ends.
const ReportFileName = "run-report.json"

// Options describes one batch run. The work list, defaults and config are
// read-only for the duration of the run.
type Options struct {
	Items       []model.WorkItem
	Defaults    model.BatchDefaults
	Config      model.JobConfig
	OutputDir   string
	ExiftoolBin string
}

// Summary aggregates a finished (or canceled) run.
type Summary struct {
	RunID      string                   `json:"run_id"`
	StartedAt  string                   `json:"started_at"`
	FinishedAt string                   `json:"finished_at"`
	Total      int                      `json:"total"`
	Processed  int                      `json:"processed"`
	Succeeded  int                      `json:"succeeded"`
	Failed     int                      `json:"failed"`
	Canceled   bool                     `json:"canceled,omitempty"`
	Results    []model.ProcessingResult `json:"results"`
}

// Run executes the batch sequentially in work-list order. The only
// run-fatal failures are creating the output directory and acquiring its
// lock; everything else is folded into per-item results. Cancellation is
// checked between items: the current item always reaches a terminal state.
func Run(ctx context.Context, opts Options, ch *Channel) (Summary, error) {
	summary := Summary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC().Format(time.RFC3339),
		Total:     len(opts.Items),
		Results:   make([]model.ProcessingResult, 0, len(opts.Items)),
	}

	if err := profile.Mkdir(opts.OutputDir); err != nil {
		return Summary{}, err
	}
	lock, err := profile.AcquireRunLock(opts.OutputDir)
	if err != nil {
		return Summary{}, err
	}
	defer func() {
		_ = lock.Release()
	}()

	client := exiftool.NewClient(opts.ExiftoolBin)

	for i, item := range opts.Items {
		if ctx.Err() != nil {
			summary.Canceled = true
			ch.Logf("run canceled; %d of %d items not started", summary.Total-summary.Processed, summary.Total)
			break
		}

		res := processItem(client, item, opts, ch)
		summary.Processed++
		if res.Succeeded() {
			summary.Succeeded++
			ch.Logf("[%d/%d] done  %s -> %s", i+1, summary.Total,
				filepath.Base(item.SourcePath), joinBases(res.Outputs))
		} else {
			summary.Failed++
			ch.Logf("[%d/%d] fail  %s: %s", i+1, summary.Total,
				filepath.Base(item.SourcePath), res.Error)
		}
		summary.Results = append(summary.Results, res)
		ch.Publish(ProgressMsg{Done: summary.Processed, Total: summary.Total})
	}

	summary.FinishedAt = time.Now().UTC().Format(time.RFC3339)
	ch.Logf("=== totals: ok=%d failed=%d ===", summary.Succeeded, summary.Failed)

	reportPath := filepath.Join(opts.OutputDir, ReportFileName)
	if err := profile.WriteJSON(reportPath, summary); err != nil {
		ch.Logf("warn: could not write run report: %v", err)
	}

	ch.Publish(DoneMsg{Summary: summary})
	return summary, nil
}

// processItem walks one work item through the pipeline state machine. The
// returned result is the item's single terminal record.
func processItem(client exiftool.Client, item model.WorkItem, opts Options, ch *Channel) model.ProcessingResult {
	state := model.ItemState{Item: item, Status: model.StatusPending}

	fail := func(err error) model.ProcessingResult {
		_ = state.Transition(model.StatusFailed)
		return model.ProcessingResult{
			ItemID: item.ID,
			Source: item.SourcePath,
			Status: model.ResultFailure,
			Error:  err.Error(),
		}
	}

	if err := item.CheckSupported(); err != nil {
		return fail(err)
	}
	meta := model.MergeMetadata(item, opts.Defaults)

	primaryFormat := transform.PrimaryFormat(item.SourceExt(), opts.Config.ConvertToJPEG)
	primaryExt := transform.FormatExt(primaryFormat)

	// Collision pre-flight happens before any decoding work is spent.
	targets, err := output.Resolve(opts.OutputDir, item.FinalStem(), primaryExt,
		opts.Config.MakeWebp, opts.Config.Overwrite)
	if err != nil {
		return fail(err)
	}

	src, err := os.Open(item.SourcePath)
	if err != nil {
		return fail(fmt.Errorf("open source: %w", err))
	}
	encoded, err := transform.Transform(src, item.SourceExt(), opts.Config)
	_ = src.Close()
	if err != nil {
		return fail(err)
	}
	if err := state.Transition(model.StatusTransformed); err != nil {
		return fail(err)
	}

	paths := targets.Paths()
	for i, enc := range encoded {
		if err := output.Materialize(paths[i], enc.Data); err != nil {
			return fail(err)
		}
	}
	if err := state.Transition(model.StatusMaterialized); err != nil {
		return fail(err)
	}

	// Metadata diagnostics are collected, never fatal.
	var diagnostics []string
	for _, p := range paths {
		for _, step := range client.WriteAll(p, meta, opts.Config) {
			if step.OK {
				continue
			}
			diag := fmt.Sprintf("%s (%s): %s", step.Step, filepath.Base(p), step.Diagnostic)
			diagnostics = append(diagnostics, diag)
			ch.Logf("warn: metadata step %s", diag)
		}
	}
	if err := state.Transition(model.StatusMetadataWritten); err != nil {
		return fail(err)
	}

	if opts.Config.RenameAfterMeta {
		renamed, err := output.RenameAfterMeta(paths[0])
		if err != nil {
			// The pre-rename file is intact; the item still succeeds.
			diagnostics = append(diagnostics, fmt.Sprintf("rename: %v", err))
			ch.Logf("warn: rename after metadata: %v", err)
		} else {
			paths[0] = renamed
		}
	}

	if opts.Config.DeleteSource {
		if err := os.Remove(item.SourcePath); err != nil {
			diagnostics = append(diagnostics, fmt.Sprintf("delete source: %v", err))
			ch.Logf("warn: delete source %s: %v", item.SourcePath, err)
		}
	}
	if err := state.Transition(model.StatusFinalized); err != nil {
		return fail(err)
	}
	if err := state.Transition(model.StatusDone); err != nil {
		return fail(err)
	}

	return model.ProcessingResult{
		ItemID:      item.ID,
		Source:      item.SourcePath,
		Status:      model.ResultSuccess,
		Outputs:     paths,
		Diagnostics: diagnostics,
	}
}

func joinBases(paths []string) string {
	out := ""
	for i, p := range paths {
		if i > 0 {
			out += ", "
		}
		out += filepath.Base(p)
	}
	return out
}
