package workflow

import (
	"errors"
	"fmt"

	"github.com/captionkit/captioner/internal/session"
)

var (
	// ErrInvalidTransition is returned when an action is not allowed in the
	// current phase. The state is left untouched.
	ErrInvalidTransition = errors.New("action not allowed in current phase")
	// ErrCandidateOutOfRange is returned by Copy for an unknown candidate.
	ErrCandidateOutOfRange = errors.New("caption candidate out of range")
)

// Action names a user action routed into the controller.
type Action string

const (
	ActionUpload     Action = "upload"
	ActionGenerate   Action = "generate"
	ActionRegenerate Action = "regenerate"
	ActionNewImage   Action = "new_image"
	ActionCopy       Action = "copy"
	ActionReset      Action = "reset"
)

// TransitionError reports which action was refused in which phase.
type TransitionError struct {
	Phase  session.Phase
	Action Action
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s while %s", ErrInvalidTransition, e.Action, e.Phase)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
