package generation

// Result is the outcome of one generation call: either the raw reply text
// or a human-readable failure reason.
type Result struct {
	ok     bool
	text   string
	reason string
}

// Success wraps a model reply.
func Success(rawText string) Result {
	return Result{ok: true, text: rawText}
}

// Failure wraps a failure reason.
func Failure(reason string) Result {
	return Result{reason: reason}
}

func (r Result) OK() bool {
	return r.ok
}

// Text is the raw reply; empty for failures.
func (r Result) Text() string {
	return r.text
}

// Reason is the failure reason; empty for successes.
func (r Result) Reason() string {
	return r.reason
}

// Err returns a *Error for failures and nil for successes.
func (r Result) Err() error {
	if r.ok {
		return nil
	}
	return &Error{Reason: r.reason}
}

// Error is a recoverable failure from the model service.
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return "caption generation failed: " + e.Reason
}
