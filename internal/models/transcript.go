package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	SpeakerAI   = "ai"
	SpeakerUser = "user"
)

const (
	TranscriptStatusPending = "pending"
	TranscriptStatusRated   = "rated"
	TranscriptStatusError   = "error"
	TranscriptStatusExpired = "expired"
)

// Analysis failure categories recorded on the transcript when the external
// call fails.
const (
	ErrorCategoryAuth            = "auth"
	ErrorCategoryRateLimit       = "rate_limit"
	ErrorCategoryUnavailable     = "upstream_unavailable"
	ErrorCategoryMalformedOutput = "malformed_output"
)

type TranscriptMessage struct {
	Speaker   string    `bson:"speaker" json:"speaker"` // ai|user
	Text      string    `bson:"text" json:"text"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

type InterviewContext struct {
	Difficulty      string         `bson:"difficulty,omitempty" json:"difficulty,omitempty"`
	InterviewType   string         `bson:"interview_type,omitempty" json:"interview_type,omitempty"`
	DurationMinutes int            `bson:"duration_minutes,omitempty" json:"duration_minutes,omitempty"`
	ProfileSnapshot map[string]any `bson:"profile_snapshot,omitempty" json:"profile_snapshot,omitempty"`
}

type Recommendation struct {
	Area       string   `bson:"area" json:"area"`
	Suggestion string   `bson:"suggestion" json:"suggestion"`
	Priority   string   `bson:"priority" json:"priority"` // low|medium|high
	Examples   []string `bson:"examples,omitempty" json:"examples,omitempty"`
}

type DetailedScores struct {
	ContentRelevance int `bson:"content_relevance" json:"content_relevance"`
	Communication    int `bson:"communication" json:"communication"`
	Confidence       int `bson:"confidence" json:"confidence"`
	Structure        int `bson:"structure" json:"structure"`
	Engagement       int `bson:"engagement" json:"engagement"`
}

// Rating is the structured result returned by the analysis provider and
// persisted on the transcript once status reaches "rated".
type Rating struct {
	OverallRating   float64          `bson:"overall_rating" json:"overall_rating"` // 1-10
	Strengths       []string         `bson:"strengths" json:"strengths"`
	Weaknesses      []string         `bson:"weaknesses" json:"weaknesses"`
	Recommendations []Recommendation `bson:"recommendations" json:"recommendations"`
	DetailedScores  DetailedScores   `bson:"detailed_scores" json:"detailed_scores"`
	Summary         string           `bson:"summary" json:"summary"`
}

type Transcript struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"-"`
	TranscriptID string              `bson:"transcript_id" json:"transcript_id"` // uuid v4
	UserID       string              `bson:"user_id" json:"user_id"`
	Messages     []TranscriptMessage `bson:"messages" json:"messages"`
	Context      InterviewContext    `bson:"context" json:"context"`

	Status        string  `bson:"status" json:"status"` // pending|rated|error|expired
	Rating        *Rating `bson:"rating,omitempty" json:"rating,omitempty"`
	ErrorCategory string  `bson:"error_category,omitempty" json:"error_category,omitempty"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	RatedAt   *time.Time `bson:"rated_at,omitempty" json:"rated_at,omitempty"`
	ExpiresAt time.Time  `bson:"expires_at" json:"expires_at"` // for TTL index
}

// Expired reports whether the record is past its retention window. Readers
// must treat an expired transcript as absent regardless of status.
func (t *Transcript) Expired(now time.Time) bool {
	return t.Status == TranscriptStatusExpired || !now.Before(t.ExpiresAt)
}

// Ratable reports whether the message list contains at least one entry from
// each speaker. A one-sided exchange has nothing meaningful to rate.
func (t *Transcript) Ratable() bool {
	var ai, user bool
	for _, m := range t.Messages {
		switch m.Speaker {
		case SpeakerAI:
			ai = true
		case SpeakerUser:
			user = true
		}
	}
	return ai && user
}
