package services

import (
	"context"
	"errors"
	"time"

	"github.com/prepforge/prepforge/internal/models"
	mongorepo "github.com/prepforge/prepforge/internal/repositories/mongo"
	pgrepo "github.com/prepforge/prepforge/internal/repositories/postgres"
	"github.com/prepforge/prepforge/internal/utils"

	"github.com/google/uuid"
)

// SessionService tracks the session-scoped interview flow: entries are
// appended as the interview happens, coarse processing flags advance
// monotonically, and feedback is generated once by materialising a transcript
// from the accumulated entries and driving it through the rating pipeline.
type SessionService interface {
	Start(ctx context.Context, userID string, md models.SessionMetadata) (*models.Session, error)
	Get(ctx context.Context, sessionID, requesterID string) (*models.Session, error)
	AppendEntry(ctx context.Context, sessionID, requesterID, speaker, text string) (*models.SessionEntry, error)
	GenerateFeedback(ctx context.Context, sessionID, requesterID string, includeDocuments bool) (*RatingResponse, error)
	End(ctx context.Context, sessionID, requesterID string) (*models.Session, error)
}

type sessionService struct {
	sessions    mongorepo.SessionRepository
	profiles    pgrepo.ProfileRepository
	transcripts TranscriptService
	ratings     RatingService
}

func NewSessionService(sessions mongorepo.SessionRepository, profiles pgrepo.ProfileRepository, transcripts TranscriptService, ratings RatingService) SessionService {
	return &sessionService{
		sessions:    sessions,
		profiles:    profiles,
		transcripts: transcripts,
		ratings:     ratings,
	}
}

func (s *sessionService) Start(ctx context.Context, userID string, md models.SessionMetadata) (*models.Session, error) {
	const op = "SessionService.Start"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	now := time.Now().UTC()
	session := &models.Session{
		SessionID: uuid.NewString(),
		UserID:    userID,
		Status:    models.SessionStatusActive,
		Metadata:  md,
		Processing: models.ProcessingStatus{
			Transcription: models.StageNotStarted,
			Analysis:      models.StageNotStarted,
			Feedback:      models.StageNotStarted,
		},
		Entries:   []models.SessionEntry{},
		CreatedAt: now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create session", err)
	}
	return session, nil
}

func (s *sessionService) Get(ctx context.Context, sessionID, requesterID string) (*models.Session, error) {
	const op = "SessionService.Get"
	return s.loadOwned(ctx, op, sessionID, requesterID)
}

func (s *sessionService) AppendEntry(ctx context.Context, sessionID, requesterID, speaker, text string) (*models.SessionEntry, error) {
	const op = "SessionService.AppendEntry"

	if speaker != models.SpeakerAI && speaker != models.SpeakerUser {
		return nil, utils.E(utils.CodeInvalidArgument, op, "speaker must be 'ai' or 'user'", nil)
	}
	if text == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "text is required", nil)
	}

	sess, err := s.loadOwned(ctx, op, sessionID, requesterID)
	if err != nil {
		return nil, err
	}
	if sess.Status == models.SessionStatusEnded {
		return nil, utils.E(utils.CodeConflict, op, "session already ended", nil)
	}

	entry := models.SessionEntry{
		Speaker:   speaker,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
	if err := s.sessions.AppendEntry(ctx, sessionID, entry); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to append entry", err)
	}

	// First entry moves transcription out of not_started; later appends find
	// the guard already satisfied and that is fine.
	if err := s.sessions.SetStage(ctx, sessionID, models.StageTranscription, models.StageInProgress, models.StageNotStarted); err != nil && !errors.Is(err, utils.ErrConflict) {
		return nil, utils.E(utils.CodeInternal, op, "failed to advance transcription stage", err)
	}

	return &entry, nil
}

func (s *sessionService) GenerateFeedback(ctx context.Context, sessionID, requesterID string, includeDocuments bool) (*RatingResponse, error) {
	const op = "SessionService.GenerateFeedback"

	sess, err := s.loadOwned(ctx, op, sessionID, requesterID)
	if err != nil {
		return nil, err
	}

	// Mirrors the orchestrator's idempotency guarantee at session granularity.
	if sess.Processing.Feedback == models.StageCompleted {
		return nil, utils.E(utils.CodeConflict, op, "feedback already generated for this session", nil)
	}
	if len(sess.Entries) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session has no transcript entries", nil)
	}

	for _, stage := range []string{models.StageFeedback, models.StageAnalysis} {
		if err := s.sessions.SetStage(ctx, sessionID, stage, models.StageInProgress, models.StageNotStarted); err != nil && !errors.Is(err, utils.ErrConflict) {
			return nil, utils.E(utils.CodeInternal, op, "failed to advance "+stage+" stage", err)
		}
	}

	t, err := s.transcripts.Create(ctx, sess.UserID, entriesToMessages(sess.Entries), s.buildContext(ctx, sess))
	if err != nil {
		return nil, err
	}

	resp, err := s.ratings.Generate(ctx, t.TranscriptID, sess.UserID, includeDocuments)
	if err != nil {
		// Flags stay at in_progress: monotonic, and a retry creates a fresh
		// transcript so the at-most-once guarantee is per transcript id.
		return nil, err
	}

	for _, stage := range []string{models.StageTranscription, models.StageAnalysis, models.StageFeedback} {
		if err := s.sessions.SetStage(ctx, sessionID, stage, models.StageCompleted, models.StageNotStarted, models.StageInProgress); err != nil && !errors.Is(err, utils.ErrConflict) {
			return nil, utils.E(utils.CodeInternal, op, "failed to complete "+stage+" stage", err)
		}
	}

	return resp, nil
}

func (s *sessionService) End(ctx context.Context, sessionID, requesterID string) (*models.Session, error) {
	const op = "SessionService.End"

	sess, err := s.loadOwned(ctx, op, sessionID, requesterID)
	if err != nil {
		return nil, err
	}
	if sess.Status == models.SessionStatusEnded {
		return sess, nil
	}

	now := time.Now().UTC()
	dur := int64(now.Sub(sess.CreatedAt).Seconds())
	if dur < 0 {
		dur = 0
	}

	if err := s.sessions.End(ctx, sessionID, now, dur); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to end session", err)
	}

	sess.Status = models.SessionStatusEnded
	sess.EndedAt = &now
	sess.DurationSeconds = dur
	return sess, nil
}

func (s *sessionService) loadOwned(ctx context.Context, op, sessionID, requesterID string) (*models.Session, error) {
	if sessionID == "" || requesterID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id and requester id are required", nil)
	}

	sess, err := s.sessions.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}
	if sess.UserID != requesterID {
		return nil, utils.E(utils.CodeForbidden, op, "forbidden", nil)
	}
	return sess, nil
}

// buildContext assembles the interview context from session metadata plus the
// user's profile snapshot. A missing profile simply yields no snapshot.
func (s *sessionService) buildContext(ctx context.Context, sess *models.Session) models.InterviewContext {
	ictx := models.InterviewContext{
		Difficulty:      sess.Metadata.Difficulty,
		InterviewType:   sess.Metadata.InterviewType,
		DurationMinutes: sess.Metadata.DurationMinutes,
	}
	if s.profiles != nil {
		if p, err := s.profiles.GetByUserID(ctx, sess.UserID); err == nil {
			ictx.ProfileSnapshot = p.Snapshot()
		}
	}
	return ictx
}

func entriesToMessages(entries []models.SessionEntry) []models.TranscriptMessage {
	msgs := make([]models.TranscriptMessage, 0, len(entries))
	for _, e := range entries {
		msgs = append(msgs, models.TranscriptMessage{
			Speaker:   e.Speaker,
			Text:      e.Text,
			Timestamp: e.Timestamp,
		})
	}
	return msgs
}
