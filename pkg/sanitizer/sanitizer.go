package sanitizer

import (
	"strings"
	"unicode"

	"webinars/pkg/model"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// SanitizeID removes control characters and surrounding whitespace from an
// identifier. Inner characters are kept as is since ids are opaque.
func SanitizeID(id string) string {
	return Pipeline{stripControl, strings.TrimSpace}.Apply(id)
}

func SanitizeEmail(email string) string {
	return Pipeline{stripControl, strings.TrimSpace, strings.ToLower}.Apply(email)
}

func SanitizeParticipationRequest(req *model.ParticipationRequest) {
	req.UserID = SanitizeID(req.UserID)
	req.Email = SanitizeEmail(req.Email)
}
