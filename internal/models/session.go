package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	SessionStatusActive = "active"
	SessionStatusEnded  = "ended"
)

const (
	StageNotStarted = "not_started"
	StageInProgress = "in_progress"
	StageCompleted  = "completed"
)

// Processing stage names within ProcessingStatus.
const (
	StageTranscription = "transcription"
	StageAnalysis      = "analysis"
	StageFeedback      = "feedback"
)

// ProcessingStatus is a coarse projection of how far the session-scoped
// interview flow has progressed. Each flag moves
// not_started -> in_progress -> completed and never backwards.
type ProcessingStatus struct {
	Transcription string `bson:"transcription" json:"transcription"`
	Analysis      string `bson:"analysis" json:"analysis"`
	Feedback      string `bson:"feedback" json:"feedback"`
}

type SessionEntry struct {
	Speaker   string    `bson:"speaker" json:"speaker"` // ai|user
	Text      string    `bson:"text" json:"text"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

type SessionMetadata struct {
	InterviewType   string `bson:"interview_type,omitempty" json:"interview_type,omitempty"`
	Difficulty      string `bson:"difficulty,omitempty" json:"difficulty,omitempty"`
	DurationMinutes int    `bson:"duration_minutes,omitempty" json:"duration_minutes,omitempty"`
	CompanyName     string `bson:"company_name,omitempty" json:"company_name,omitempty"`
	Position        string `bson:"position,omitempty" json:"position,omitempty"`
}

type Session struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID string             `bson:"session_id" json:"session_id"` // uuid v4
	UserID    string             `bson:"user_id" json:"user_id"`

	InterviewID string           `bson:"interview_id,omitempty" json:"interview_id,omitempty"`
	Status      string           `bson:"status" json:"status"` // active|ended
	Metadata    SessionMetadata  `bson:"metadata,omitempty" json:"metadata,omitempty"`
	Processing  ProcessingStatus `bson:"processing_status" json:"processing_status"`

	Entries []SessionEntry `bson:"entries" json:"entries"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	EndedAt   *time.Time `bson:"ended_at,omitempty" json:"ended_at,omitempty"`

	DurationSeconds int64 `bson:"duration_seconds" json:"duration_seconds"`
}

// StageRank orders processing stage values for the monotonic transition rule.
// Unknown values rank below not_started so they can never win an update.
func StageRank(v string) int {
	switch v {
	case StageNotStarted:
		return 1
	case StageInProgress:
		return 2
	case StageCompleted:
		return 3
	default:
		return 0
	}
}
