package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/captionkit/captioner/internal/generation"
	"github.com/captionkit/captioner/internal/models"
	"github.com/captionkit/captioner/internal/parser"
	"github.com/captionkit/captioner/internal/prompt"
	"github.com/captionkit/captioner/internal/session"
)

// Controller drives one session through upload, generate and review.
//
// Actions are serialized: each one completes, including the model call, before
// the next starts. View may be called at any time and reports Generating while
// a call is in flight.
type Controller struct {
	actionMu sync.Mutex

	mu        sync.RWMutex
	state     *session.State
	lastError string

	generator generation.Generator
	template  string
	now       func() time.Time
	observers []func(View)
}

type Option func(*Controller)

// WithTemplate overrides the instruction template.
func WithTemplate(template string) Option {
	return func(c *Controller) { c.template = template }
}

// WithClock sets the time source for history timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithObserver registers fn to receive the view after every state change.
func WithObserver(fn func(View)) Option {
	return func(c *Controller) { c.observers = append(c.observers, fn) }
}

func New(generator generation.Generator, opts ...Option) *Controller {
	c := &Controller{
		state:     session.New(),
		generator: generator,
		template:  prompt.Template,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// View returns the current view.
func (c *Controller) View() View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return buildView(c.state, c.lastError)
}

// Image returns the staged image.
func (c *Controller) Image() (models.Image, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Image()
}

// HistoryEntry returns the entry at 1-based insertion number n.
func (c *Controller) HistoryEntry(n int) (session.HistoryEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.History().At(n - 1)
}

// History returns the history in insertion order.
func (c *Controller) History() []session.HistoryEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.History().Entries()
}

// Upload stages img. A staged image may be replaced before generating.
func (c *Controller) Upload(img models.Image) (View, error) {
	return c.apply(ActionUpload, func(s *session.State) error {
		switch s.Phase() {
		case session.AwaitingUpload, session.ImageStaged:
			return s.Stage(img)
		default:
			return &TransitionError{Phase: s.Phase(), Action: ActionUpload}
		}
	})
}

// Generate sends the staged image to the model. On failure the session
// returns to ImageStaged with the image kept, and the returned error is a
// *generation.Error carrying the reason.
func (c *Controller) Generate(ctx context.Context) (View, error) {
	c.actionMu.Lock()
	defer c.actionMu.Unlock()

	c.mu.Lock()
	if phase := c.state.Phase(); phase != session.ImageStaged {
		v := buildView(c.state, c.lastError)
		c.mu.Unlock()
		return v, &TransitionError{Phase: phase, Action: ActionGenerate}
	}
	if err := c.state.BeginGenerating(); err != nil {
		v := buildView(c.state, c.lastError)
		c.mu.Unlock()
		return v, err
	}
	c.lastError = ""
	img, _ := c.state.Image()
	generating := buildView(c.state, "")
	c.mu.Unlock()
	c.notify(generating)

	res := c.generator.Generate(ctx, img, c.template)

	c.mu.Lock()
	var err error
	if res.OK() {
		err = c.state.Complete(res.Text(), c.now())
		if err == nil {
			slog.Info("Captions generated",
				"image", img.Filename(),
				"candidates", len(parser.ParseCandidates(res.Text())),
				"history", c.state.History().Len())
		}
	} else {
		err = res.Err()
		c.lastError = err.Error()
		if dropErr := c.state.DropResult(); dropErr != nil {
			err = dropErr
		}
	}
	v := buildView(c.state, c.lastError)
	c.mu.Unlock()
	c.notify(v)

	return v, err
}

// Regenerate drops the current result and keeps the image staged.
func (c *Controller) Regenerate() (View, error) {
	return c.apply(ActionRegenerate, func(s *session.State) error {
		if s.Phase() != session.Reviewing {
			return &TransitionError{Phase: s.Phase(), Action: ActionRegenerate}
		}
		return s.DropResult()
	})
}

// NewImage discards the image and result so a new photo can be uploaded.
func (c *Controller) NewImage() (View, error) {
	return c.apply(ActionNewImage, func(s *session.State) error {
		if s.Phase() != session.Reviewing {
			return &TransitionError{Phase: s.Phase(), Action: ActionNewImage}
		}
		s.Unstage()
		return nil
	})
}

// Copy records candidate i (zero-based) as the copied text.
func (c *Controller) Copy(i int) (View, error) {
	return c.apply(ActionCopy, func(s *session.State) error {
		if s.Phase() != session.Reviewing {
			return &TransitionError{Phase: s.Phase(), Action: ActionCopy}
		}
		res, _ := s.Result()
		candidates := parser.ParseCandidates(res.Text())
		if i < 0 || i >= len(candidates) {
			return ErrCandidateOutOfRange
		}
		s.SetCopied(candidates[i].Text)
		return nil
	})
}

// Reset clears the whole session, history included. It is allowed from any
// phase.
func (c *Controller) Reset() View {
	v, _ := c.apply(ActionReset, func(s *session.State) error {
		s.Reset()
		return nil
	})
	return v
}

func (c *Controller) apply(action Action, fn func(*session.State) error) (View, error) {
	c.actionMu.Lock()
	defer c.actionMu.Unlock()

	c.mu.Lock()
	before := c.state.Phase()
	err := fn(c.state)
	if err == nil {
		c.lastError = ""
	}
	v := buildView(c.state, c.lastError)
	c.mu.Unlock()

	if err != nil {
		slog.Debug("Action refused", "action", action, "phase", before, "err", err)
		return v, err
	}
	slog.Debug("Action applied", "action", action, "from", before, "to", v.Phase)
	c.notify(v)
	return v, nil
}

func (c *Controller) notify(v View) {
	for _, fn := range c.observers {
		fn(v)
	}
}
