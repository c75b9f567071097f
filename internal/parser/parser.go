package parser

import "strings"

// Candidate is one non-blank line of model output offered as a caption.
type Candidate struct {
	Index int    `json:"index" yaml:"index"`
	Text  string `json:"text" yaml:"text"`
}

// ParseCandidates splits a model reply into caption candidates.
// Blank lines are dropped; everything else is kept verbatim and in order.
// The requested format is not checked, so hashtag lines come back as their
// own candidates.
func ParseCandidates(rawText string) []Candidate {
	candidates := []Candidate{}
	for _, line := range strings.Split(rawText, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		candidates = append(candidates, Candidate{
			Index: len(candidates),
			Text:  line,
		})
	}
	return candidates
}

// Texts returns the candidate strings.
func Texts(candidates []Candidate) []string {
	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Text
	}
	return texts
}
