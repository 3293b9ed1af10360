package analysis

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/prepforge/prepforge/internal/models"
)

const ratingJSON = `{
	"overall_rating": 7.5,
	"strengths": ["concise answers"],
	"weaknesses": ["missed follow-ups"],
	"recommendations": [{"area": "depth", "suggestion": "quantify impact", "priority": "medium"}],
	"detailed_scores": {"content_relevance": 70, "communication": 80, "confidence": 65, "structure": 75, "engagement": 72},
	"summary": "Good baseline, needs more depth."
}`

func TestParseRating(t *testing.T) {
	r, err := ParseRating([]byte(ratingJSON))
	require.NoError(t, err)
	require.InDelta(t, 7.5, r.OverallRating, 0.001)
	require.Equal(t, "Good baseline, needs more depth.", r.Summary)
	require.Len(t, r.Recommendations, 1)
	require.Equal(t, 80, r.DetailedScores.Communication)
}

func TestParseRatingStripsCodeFences(t *testing.T) {
	fenced := "```json\n" + ratingJSON + "\n```"
	r, err := ParseRating([]byte(fenced))
	require.NoError(t, err)
	require.InDelta(t, 7.5, r.OverallRating, 0.001)

	bare := "```\n" + ratingJSON + "\n```"
	r, err = ParseRating([]byte(bare))
	require.NoError(t, err)
	require.NotEmpty(t, r.Summary)
}

func TestParseRatingRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":           "the candidate did well overall",
		"rating out of low":  `{"overall_rating": 0.5, "summary": "x"}`,
		"rating out of high": `{"overall_rating": 11, "summary": "x"}`,
		"missing summary":    `{"overall_rating": 5}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRating([]byte(raw))
			require.ErrorIs(t, err, ErrMalformedOutput)
		})
	}
}

func TestCategoryMapping(t *testing.T) {
	require.Equal(t, models.ErrorCategoryAuth, Category(fmt.Errorf("wrap: %w", ErrAuth)))
	require.Equal(t, models.ErrorCategoryRateLimit, Category(ErrRateLimited))
	require.Equal(t, models.ErrorCategoryMalformedOutput, Category(ErrMalformedOutput))
	require.Equal(t, models.ErrorCategoryUnavailable, Category(ErrUnavailable))
	// unknown failures default to the unavailable bucket
	require.Equal(t, models.ErrorCategoryUnavailable, Category(errors.New("boom")))
}

func TestBuildPromptIncludesAllSections(t *testing.T) {
	now := time.Now().UTC()
	p := BuildPrompt(Request{
		Messages: []models.TranscriptMessage{
			{Speaker: models.SpeakerAI, Text: "Walk me through your resume.", Timestamp: now},
			{Speaker: models.SpeakerUser, Text: "Sure, I started in QA.", Timestamp: now},
		},
		Context:             models.InterviewContext{InterviewType: "behavioral"},
		SupplementalContent: "Resume: QA to backend.",
	})

	require.Contains(t, p, "Interviewer: Walk me through your resume.")
	require.Contains(t, p, "Candidate: Sure, I started in QA.")
	require.Contains(t, p, `"interview_type":"behavioral"`)
	require.Contains(t, p, "Resume: QA to backend.")
	require.Contains(t, p, "overall_rating")
}

func TestBuildPromptOmitsEmptySections(t *testing.T) {
	p := BuildPrompt(Request{
		Messages: []models.TranscriptMessage{
			{Speaker: models.SpeakerUser, Text: "Hello."},
		},
	})
	require.NotContains(t, p, "Background material")
	require.False(t, strings.Contains(p, "Interview context"))
}
