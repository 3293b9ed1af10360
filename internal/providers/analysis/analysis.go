package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/prepforge/prepforge/internal/models"
)

// Request is the material sent to the external analysis service: the
// transcript itself, its interview context (passed through opaquely), and
// optional aggregated text from the user's uploaded documents.
type Request struct {
	Messages            []models.TranscriptMessage
	Context             models.InterviewContext
	SupplementalContent string
}

type Provider interface {
	// Analyze performs exactly one call to the external service and returns
	// the parsed rating. Failures are classified via the sentinel errors
	// below so the orchestrator can persist a category and pick a status
	// code without inspecting provider internals.
	Analyze(ctx context.Context, req Request) (*models.Rating, error)
	Close() error
}

// Failure classification sentinels. Implementations wrap these.
var (
	ErrAuth            = errors.New("analysis: authentication or configuration rejected")
	ErrRateLimited     = errors.New("analysis: provider rate limit exceeded")
	ErrUnavailable     = errors.New("analysis: provider unavailable")
	ErrMalformedOutput = errors.New("analysis: provider returned unparsable output")
)

// Category maps a provider error to the category recorded on the transcript.
func Category(err error) string {
	switch {
	case errors.Is(err, ErrAuth):
		return models.ErrorCategoryAuth
	case errors.Is(err, ErrRateLimited):
		return models.ErrorCategoryRateLimit
	case errors.Is(err, ErrMalformedOutput):
		return models.ErrorCategoryMalformedOutput
	default:
		return models.ErrorCategoryUnavailable
	}
}

// BuildPrompt renders the analysis request as a single text prompt. The exact
// wording is not contractual; the JSON shape requested of the model is.
func BuildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("You are an expert interview coach. Analyze the mock interview transcript below ")
	b.WriteString("and respond with a single JSON object, no prose, using exactly these keys: ")
	b.WriteString(`overall_rating (number 1-10), strengths (string array), weaknesses (string array), `)
	b.WriteString(`recommendations (array of {area, suggestion, priority: "low"|"medium"|"high", examples}), `)
	b.WriteString(`detailed_scores ({content_relevance, communication, confidence, structure, engagement}: each 0-100), `)
	b.WriteString("summary (string).\n\n")

	if ctxJSON, err := json.Marshal(req.Context); err == nil && string(ctxJSON) != "{}" {
		b.WriteString("Interview context:\n")
		b.Write(ctxJSON)
		b.WriteString("\n\n")
	}

	if req.SupplementalContent != "" {
		b.WriteString("Background material uploaded by the candidate:\n")
		b.WriteString(req.SupplementalContent)
		b.WriteString("\n\n")
	}

	b.WriteString("Transcript:\n")
	for _, m := range req.Messages {
		speaker := "Interviewer"
		if m.Speaker == models.SpeakerUser {
			speaker = "Candidate"
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, m.Text)
	}
	return b.String()
}

// ParseRating decodes model output into a Rating, tolerating markdown code
// fences, and rejects structurally implausible results as malformed.
func ParseRating(raw []byte) (*models.Rating, error) {
	trimmed := bytes.TrimSpace(raw)
	if bytes.HasPrefix(trimmed, []byte("```")) {
		trimmed = bytes.TrimPrefix(trimmed, []byte("```json"))
		trimmed = bytes.TrimPrefix(trimmed, []byte("```"))
		if i := bytes.LastIndex(trimmed, []byte("```")); i >= 0 {
			trimmed = trimmed[:i]
		}
		trimmed = bytes.TrimSpace(trimmed)
	}

	var r models.Rating
	if err := json.Unmarshal(trimmed, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if r.OverallRating < 1 || r.OverallRating > 10 {
		return nil, fmt.Errorf("%w: overall_rating %v out of range", ErrMalformedOutput, r.OverallRating)
	}
	if r.Summary == "" {
		return nil, fmt.Errorf("%w: missing summary", ErrMalformedOutput)
	}
	return &r, nil
}
