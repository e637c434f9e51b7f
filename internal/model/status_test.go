package model

import "testing"

func TestCanTransition_AllowsExpectedPaths(t *testing.T) {
	cases := []struct {
		from string
		to   string
	}{
		{"", StatusPending},
		{StatusPending, StatusTransformed},
		{StatusPending, StatusFailed},
		{StatusTransformed, StatusMaterialized},
		{StatusTransformed, StatusFailed},
		{StatusMaterialized, StatusMetadataWritten},
		{StatusMetadataWritten, StatusFinalized},
		{StatusFinalized, StatusDone},
	}

	for _, tc := range cases {
		if !CanTransition(tc.from, tc.to) {
			t.Fatalf("expected transition %q -> %q to be allowed", tc.from, tc.to)
		}
	}
}

func TestCanTransition_RejectsInvalidPaths(t *testing.T) {
	cases := []struct {
		from string
		to   string
	}{
		{StatusPending, StatusDone},
		{StatusPending, StatusMaterialized},
		{StatusMaterialized, StatusFailed},
		{StatusMetadataWritten, StatusFailed},
		{StatusFinalized, StatusFailed},
		{StatusDone, StatusPending},
		{StatusFailed, StatusPending},
		{"not_a_state", StatusPending},
	}

	for _, tc := range cases {
		if CanTransition(tc.from, tc.to) {
			t.Fatalf("expected transition %q -> %q to be rejected", tc.from, tc.to)
		}
	}
}

func TestItemState_BlocksIllegalTransition(t *testing.T) {
	st := ItemState{Item: NewWorkItem("/tmp/a.jpg"), Status: StatusPending}
	if err := st.Transition(StatusDone); err == nil {
		t.Fatalf("expected illegal transition error")
	}
	if st.Status != StatusPending {
		t.Fatalf("status mutated on rejected transition: %s", st.Status)
	}
}

func TestItemState_FullPipelinePath(t *testing.T) {
	st := ItemState{Item: NewWorkItem("/tmp/a.jpg"), Status: StatusPending}
	for _, to := range []string{
		StatusTransformed,
		StatusMaterialized,
		StatusMetadataWritten,
		StatusFinalized,
		StatusDone,
	} {
		if err := st.Transition(to); err != nil {
			t.Fatalf("transition to %s: %v", to, err)
		}
	}
	if !IsTerminalStatus(st.Status) {
		t.Fatalf("expected terminal status, got %s", st.Status)
	}
}
