package measure

import (
	"errors"
	"fmt"
)

// Status is the publishing workflow state of a measure version.
type Status string

const (
	StatusDraft            Status = "draft"
	StatusInternalReview   Status = "internal_review"
	StatusDepartmentReview Status = "department_review"
	StatusApproved         Status = "approved"
	StatusRejected         Status = "rejected"
	StatusUnpublished      Status = "unpublished"
)

var (
	// ErrRejectionImpossible is returned when reject is attempted outside
	// the two review states. The version's status is left unchanged.
	ErrRejectionImpossible = errors.New("measure version cannot be rejected in its current state")
	// ErrPageNotEditable is returned by any mutating operation on a version
	// that is under review or already approved.
	ErrPageNotEditable = errors.New("measure version is not editable in its current state")
	// ErrNoNextState is returned when the approval chain has no further
	// forward step.
	ErrNoNextState = errors.New("measure version has no next state")
)

// Action is a workflow operation a user may take on a version.
type Action string

const (
	ActionApprove       Action = "APPROVE"
	ActionReject        Action = "REJECT"
	ActionUpdate        Action = "UPDATE"
	ActionReturnToDraft Action = "RETURN_TO_DRAFT"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusInternalReview, StatusDepartmentReview,
		StatusApproved, StatusRejected, StatusUnpublished:
		return true
	}
	return false
}

// Next advances exactly one step along the approval chain:
// draft -> internal_review -> department_review -> approved.
func (s Status) Next() (Status, error) {
	switch s {
	case StatusDraft:
		return StatusInternalReview, nil
	case StatusInternalReview:
		return StatusDepartmentReview, nil
	case StatusDepartmentReview:
		return StatusApproved, nil
	default:
		return s, fmt.Errorf("%w: status %q", ErrNoNextState, s)
	}
}

// Rejectable reports whether reject is a valid transition from s.
func (s Status) Rejectable() bool {
	return s == StatusInternalReview || s == StatusDepartmentReview
}

// Editable reports whether content edits are allowed: editing is blocked
// while a version is under any review or already approved.
func (s Status) Editable() bool {
	switch s {
	case StatusDraft, StatusRejected, StatusUnpublished:
		return true
	}
	return false
}

// AvailableActions lists the workflow operations valid from s.
func (s Status) AvailableActions() []Action {
	switch s {
	case StatusDraft:
		return []Action{ActionApprove, ActionUpdate}
	case StatusInternalReview, StatusDepartmentReview:
		return []Action{ActionApprove, ActionReject}
	case StatusRejected:
		return []Action{ActionReturnToDraft}
	}
	return nil
}

// NextState advances the version one step along the approval chain. The
// caller handles the publish bookkeeping when the result is approved.
func (mv *MeasureVersion) NextState() error {
	next, err := mv.Status.Next()
	if err != nil {
		return err
	}
	mv.Status = next
	return nil
}

// Reject moves the version to rejected; valid only from the review states.
func (mv *MeasureVersion) Reject() error {
	if !mv.Status.Rejectable() {
		return fmt.Errorf("%w: status %q", ErrRejectionImpossible, mv.Status)
	}
	mv.Status = StatusRejected
	return nil
}

// ReturnToDraft is a direct transition back to draft. The original system
// cycled through the status ring with modulo arithmetic; that was an
// accident of enum ordering, not behavior anyone relies on.
func (mv *MeasureVersion) ReturnToDraft() {
	mv.Status = StatusDraft
}

func (mv *MeasureVersion) Editable() bool { return mv.Status.Editable() }

// EligibleForBuild reports whether the static-site builder may pick this
// version up.
func (mv *MeasureVersion) EligibleForBuild() bool { return mv.Status == StatusApproved }

func (mv *MeasureVersion) AvailableActions() []Action { return mv.Status.AvailableActions() }
