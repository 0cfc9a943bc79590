package measure

import (
	"errors"
	"reflect"
	"testing"
)

func TestStatusNextWalksApprovalChain(t *testing.T) {
	mv := &MeasureVersion{Status: StatusDraft}
	want := []Status{StatusInternalReview, StatusDepartmentReview, StatusApproved}
	for _, w := range want {
		if err := mv.NextState(); err != nil {
			t.Fatalf("NextState from %q: %v", mv.Status, err)
		}
		if mv.Status != w {
			t.Fatalf("NextState = %q, want %q", mv.Status, w)
		}
	}
	if err := mv.NextState(); !errors.Is(err, ErrNoNextState) {
		t.Fatalf("NextState from approved: got %v, want ErrNoNextState", err)
	}
}

func TestRejectOnlyFromReviewStates(t *testing.T) {
	for _, s := range []Status{StatusInternalReview, StatusDepartmentReview} {
		mv := &MeasureVersion{Status: s}
		if err := mv.Reject(); err != nil {
			t.Fatalf("Reject from %q: %v", s, err)
		}
		if mv.Status != StatusRejected {
			t.Fatalf("Reject from %q left status %q", s, mv.Status)
		}
	}

	for _, s := range []Status{StatusDraft, StatusApproved, StatusRejected, StatusUnpublished} {
		mv := &MeasureVersion{Status: s}
		err := mv.Reject()
		if !errors.Is(err, ErrRejectionImpossible) {
			t.Fatalf("Reject from %q: got %v, want ErrRejectionImpossible", s, err)
		}
		if mv.Status != s {
			t.Fatalf("Reject from %q mutated status to %q", s, mv.Status)
		}
	}
}

func TestAvailableActions(t *testing.T) {
	cases := map[Status][]Action{
		StatusDraft:            {ActionApprove, ActionUpdate},
		StatusInternalReview:   {ActionApprove, ActionReject},
		StatusDepartmentReview: {ActionApprove, ActionReject},
		StatusRejected:         {ActionReturnToDraft},
		StatusApproved:         nil,
		StatusUnpublished:      nil,
	}
	for s, want := range cases {
		if got := s.AvailableActions(); !reflect.DeepEqual(got, want) {
			t.Errorf("AvailableActions(%q) = %v, want %v", s, got, want)
		}
	}
}

func TestEditability(t *testing.T) {
	editable := map[Status]bool{
		StatusDraft:            true,
		StatusRejected:         true,
		StatusUnpublished:      true,
		StatusInternalReview:   false,
		StatusDepartmentReview: false,
		StatusApproved:         false,
	}
	for s, want := range editable {
		if got := s.Editable(); got != want {
			t.Errorf("Editable(%q) = %v, want %v", s, got, want)
		}
	}
}

func TestReturnToDraftIsDirect(t *testing.T) {
	mv := &MeasureVersion{Status: StatusRejected}
	mv.ReturnToDraft()
	if mv.Status != StatusDraft {
		t.Fatalf("ReturnToDraft left status %q", mv.Status)
	}
}

func TestEligibleForBuild(t *testing.T) {
	for _, s := range []Status{StatusDraft, StatusInternalReview, StatusDepartmentReview, StatusRejected, StatusUnpublished} {
		mv := &MeasureVersion{Status: s}
		if mv.EligibleForBuild() {
			t.Errorf("EligibleForBuild(%q) = true", s)
		}
	}
	mv := &MeasureVersion{Status: StatusApproved}
	if !mv.EligibleForBuild() {
		t.Fatal("EligibleForBuild(approved) = false")
	}
}
