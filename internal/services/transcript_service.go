package services

import (
	"context"
	"errors"
	"time"

	"github.com/prepforge/prepforge/internal/models"
	mongorepo "github.com/prepforge/prepforge/internal/repositories/mongo"
	"github.com/prepforge/prepforge/internal/utils"

	"github.com/google/uuid"
)

// TranscriptService owns the transcript lifecycle: creation, owner-scoped
// loading with read-time expiry enforcement, and purging.
type TranscriptService interface {
	Create(ctx context.Context, userID string, messages []models.TranscriptMessage, ictx models.InterviewContext) (*models.Transcript, error)
	// GetOwned loads a transcript for requesterID. Absent, foreign-looking
	// (expired) records are NOT_FOUND; an existing record with a different
	// owner is FORBIDDEN.
	GetOwned(ctx context.Context, transcriptID, requesterID string) (*models.Transcript, error)
	PurgeExpired(ctx context.Context) (int64, error)
}

type transcriptService struct {
	transcripts mongorepo.TranscriptRepository
	ttl         time.Duration
}

func NewTranscriptService(transcripts mongorepo.TranscriptRepository, ttl time.Duration) TranscriptService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &transcriptService{transcripts: transcripts, ttl: ttl}
}

func (s *transcriptService) Create(ctx context.Context, userID string, messages []models.TranscriptMessage, ictx models.InterviewContext) (*models.Transcript, error) {
	const op = "TranscriptService.Create"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	if len(messages) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "messages must not be empty", nil)
	}
	now := time.Now().UTC()
	for i := range messages {
		m := &messages[i]
		if m.Speaker != models.SpeakerAI && m.Speaker != models.SpeakerUser {
			return nil, utils.E(utils.CodeInvalidArgument, op, "message speaker must be 'ai' or 'user'", nil)
		}
		if m.Text == "" {
			return nil, utils.E(utils.CodeInvalidArgument, op, "message text must not be empty", nil)
		}
		if m.Timestamp.IsZero() {
			m.Timestamp = now
		}
	}

	t := &models.Transcript{
		TranscriptID: uuid.NewString(),
		UserID:       userID,
		Messages:     messages,
		Context:      ictx,
		Status:       models.TranscriptStatusPending,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.ttl),
	}

	if err := s.transcripts.Create(ctx, t); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create transcript", err)
	}
	return t, nil
}

func (s *transcriptService) GetOwned(ctx context.Context, transcriptID, requesterID string) (*models.Transcript, error) {
	const op = "TranscriptService.GetOwned"

	if transcriptID == "" || requesterID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "transcript_id and requester id are required", nil)
	}

	t, err := s.transcripts.GetByTranscriptID(ctx, transcriptID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "transcript not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load transcript", err)
	}

	// Expiry first: an expired record is indistinguishable from an absent
	// one, even to its owner.
	if t.Expired(time.Now().UTC()) {
		return nil, utils.E(utils.CodeNotFound, op, "transcript not found", nil)
	}
	if t.UserID != requesterID {
		return nil, utils.E(utils.CodeForbidden, op, "forbidden", nil)
	}
	return t, nil
}

func (s *transcriptService) PurgeExpired(ctx context.Context) (int64, error) {
	const op = "TranscriptService.PurgeExpired"

	n, err := s.transcripts.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		return 0, utils.E(utils.CodeInternal, op, "failed to purge expired transcripts", err)
	}
	return n, nil
}
