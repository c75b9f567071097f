package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/captionkit/captioner/internal/generation"
	"github.com/captionkit/captioner/internal/models"
)

// ErrInvariant is returned when a mutation would leave the state inconsistent
// with its phase.
var ErrInvariant = errors.New("session state invariant violated")

// State is the mutable record of one session. The phase decides which of the
// optional fields are present:
//
//	AwaitingUpload  no image, no result
//	ImageStaged     image, no result
//	Generating      image, no result
//	Reviewing       image, successful result
type State struct {
	phase      Phase
	image      models.Image
	result     *generation.Result
	history    History
	copiedText *string
}

// New returns a state in AwaitingUpload.
func New() *State {
	return &State{phase: AwaitingUpload}
}

func (s *State) Phase() Phase {
	return s.phase
}

// Image returns the staged image, if any.
func (s *State) Image() (models.Image, bool) {
	return s.image, !s.image.IsZero()
}

// Result returns the current generation result, if any.
func (s *State) Result() (generation.Result, bool) {
	if s.result == nil {
		return generation.Result{}, false
	}
	return *s.result, true
}

// CopiedText returns the last copied candidate, if any.
func (s *State) CopiedText() (string, bool) {
	if s.copiedText == nil {
		return "", false
	}
	return *s.copiedText, true
}

func (s *State) History() *History {
	return &s.history
}

// Stage sets the image and moves to ImageStaged.
func (s *State) Stage(img models.Image) error {
	if img.IsZero() {
		return fmt.Errorf("%w: staging an empty image", ErrInvariant)
	}
	s.image = img
	s.result = nil
	s.phase = ImageStaged
	return nil
}

// BeginGenerating moves a staged image into Generating.
func (s *State) BeginGenerating() error {
	if s.image.IsZero() {
		return fmt.Errorf("%w: generating without an image", ErrInvariant)
	}
	s.result = nil
	s.phase = Generating
	return nil
}

// Complete records a successful reply, appends it to history and moves to
// Reviewing.
func (s *State) Complete(rawText string, at time.Time) error {
	if s.phase != Generating {
		return fmt.Errorf("%w: completing from %s", ErrInvariant, s.phase)
	}
	res := generation.Success(rawText)
	s.result = &res
	s.history.Append(HistoryEntry{Image: s.image, RawText: rawText, CreatedAt: at})
	s.phase = Reviewing
	return nil
}

// DropResult clears the result and returns to ImageStaged, keeping the image.
func (s *State) DropResult() error {
	if s.image.IsZero() {
		return fmt.Errorf("%w: no image to keep", ErrInvariant)
	}
	s.result = nil
	s.phase = ImageStaged
	return nil
}

// Unstage drops the image and result and returns to AwaitingUpload.
func (s *State) Unstage() {
	s.image = models.Image{}
	s.result = nil
	s.phase = AwaitingUpload
}

// SetCopied records the copied candidate text without changing phase.
func (s *State) SetCopied(text string) {
	s.copiedText = &text
}

// Reset clears everything, history included.
func (s *State) Reset() {
	s.Unstage()
	s.history.clear()
	s.copiedText = nil
}

// Validate checks the phase invariants.
func (s *State) Validate() error {
	hasImage := !s.image.IsZero()
	switch s.phase {
	case AwaitingUpload:
		if hasImage {
			return fmt.Errorf("%w: %s with an image", ErrInvariant, s.phase)
		}
		if s.result != nil {
			return fmt.Errorf("%w: %s with a result", ErrInvariant, s.phase)
		}
	case ImageStaged, Generating:
		if !hasImage {
			return fmt.Errorf("%w: %s without an image", ErrInvariant, s.phase)
		}
		if s.result != nil {
			return fmt.Errorf("%w: %s with a result", ErrInvariant, s.phase)
		}
	case Reviewing:
		if !hasImage {
			return fmt.Errorf("%w: %s without an image", ErrInvariant, s.phase)
		}
		if s.result == nil || !s.result.OK() {
			return fmt.Errorf("%w: %s without a successful result", ErrInvariant, s.phase)
		}
	default:
		return fmt.Errorf("%w: unknown phase %d", ErrInvariant, s.phase)
	}
	return nil
}
