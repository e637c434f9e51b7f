package model

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat marks sources whose extension is outside the
// allow-list.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Per-item pipeline states. An item moves strictly forward until it reaches
// a terminal state; failure edges exist only where the step is fatal for the
// item (metadata, rename and delete problems never fail an item).
const (
	StatusPending         = "pending"
	StatusTransformed     = "transformed"
	StatusMaterialized    = "materialized"
	StatusMetadataWritten = "metadata_written"
	StatusFinalized       = "finalized"
	StatusDone            = "done"
	StatusFailed          = "failed"
)

var allowedTransitions = map[string]map[string]bool{
	"": {
		StatusPending: true,
	},
	StatusPending: {
		StatusTransformed: true,
		StatusFailed:      true,
	},
	StatusTransformed: {
		StatusMaterialized: true,
		StatusFailed:       true,
	},
	StatusMaterialized: {
		// Metadata steps are non-fatal, so this edge always moves forward.
		StatusMetadataWritten: true,
	},
	StatusMetadataWritten: {
		StatusFinalized: true,
	},
	StatusFinalized: {
		StatusDone: true,
	},
	StatusDone:   {},
	StatusFailed: {},
}

func IsKnownStatus(status string) bool {
	_, ok := allowedTransitions[status]
	return ok
}

func IsTerminalStatus(status string) bool {
	return status == StatusDone || status == StatusFailed
}

func CanTransition(from, to string) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// ItemState tracks one item's progress through the pipeline during a run.
type ItemState struct {
	Item   WorkItem
	Status string
}

func (s *ItemState) Transition(to string) error {
	if !CanTransition(s.Status, to) {
		return fmt.Errorf("invalid item status transition: %q -> %q (item_id=%s source=%s)",
			s.Status, to, s.Item.ID, s.Item.SourcePath)
	}
	s.Status = to
	return nil
}
