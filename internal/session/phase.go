package session

// Phase is where a session currently is in the caption workflow.
type Phase int

const (
	AwaitingUpload Phase = iota
	ImageStaged
	Generating
	Reviewing
)

func (p Phase) String() string {
	switch p {
	case AwaitingUpload:
		return "awaiting_upload"
	case ImageStaged:
		return "image_staged"
	case Generating:
		return "generating"
	case Reviewing:
		return "reviewing"
	default:
		return "unknown"
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}
