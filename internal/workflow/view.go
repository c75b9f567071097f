package workflow

import (
	"time"

	"github.com/captionkit/captioner/internal/models"
	"github.com/captionkit/captioner/internal/parser"
	"github.com/captionkit/captioner/internal/session"
)

// View is everything a UI needs to render a session.
type View struct {
	Phase      session.Phase      `json:"phase"`
	Image      *models.ImageInfo  `json:"image,omitempty"`
	RawText    string             `json:"raw_text,omitempty"`
	Candidates []parser.Candidate `json:"candidates"`
	History    []HistoryItem      `json:"history"`
	CopiedText *string            `json:"copied_text,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// HistoryItem is a history entry prepared for display. Number is the
// 1-based insertion position, so the newest item carries the highest number.
type HistoryItem struct {
	Number    int              `json:"number"`
	Image     models.ImageInfo `json:"image"`
	RawText   string           `json:"raw_text"`
	CreatedAt time.Time        `json:"created_at"`
}

func buildView(s *session.State, lastError string) View {
	v := View{
		Phase:      s.Phase(),
		Candidates: []parser.Candidate{},
		Error:      lastError,
	}

	if img, ok := s.Image(); ok {
		info := img.Info()
		v.Image = &info
	}

	if s.Phase() == session.Reviewing {
		if res, ok := s.Result(); ok {
			v.RawText = res.Text()
			v.Candidates = parser.ParseCandidates(res.Text())
		}
	}

	h := s.History()
	v.History = make([]HistoryItem, 0, h.Len())
	for i, e := range h.NewestFirst() {
		v.History = append(v.History, HistoryItem{
			Number:    h.Len() - i,
			Image:     e.Image.Info(),
			RawText:   e.RawText,
			CreatedAt: e.CreatedAt,
		})
	}

	if copied, ok := s.CopiedText(); ok {
		v.CopiedText = &copied
	}
	return v
}
