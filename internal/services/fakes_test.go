package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/prepforge/prepforge/internal/models"
	"github.com/prepforge/prepforge/internal/providers/analysis"
	"github.com/prepforge/prepforge/internal/utils"
)

// fakeTranscriptRepo is an in-memory TranscriptRepository with the same
// conditional-update semantics as the Mongo implementation.
type fakeTranscriptRepo struct {
	mu      sync.Mutex
	records map[string]*models.Transcript

	markRatedErr error // forced return, when set
	markErrorErr error
}

func newFakeTranscriptRepo() *fakeTranscriptRepo {
	return &fakeTranscriptRepo{records: map[string]*models.Transcript{}}
}

func (f *fakeTranscriptRepo) put(t *models.Transcript) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *t
	f.records[t.TranscriptID] = &cp
}

func (f *fakeTranscriptRepo) get(id string) *models.Transcript {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.records[id]; ok {
		cp := *t
		return &cp
	}
	return nil
}

func (f *fakeTranscriptRepo) Create(ctx context.Context, t *models.Transcript) error {
	f.put(t)
	return nil
}

func (f *fakeTranscriptRepo) GetByTranscriptID(ctx context.Context, transcriptID string) (*models.Transcript, error) {
	if t := f.get(transcriptID); t != nil {
		return t, nil
	}
	return nil, utils.ErrNotFound
}

func (f *fakeTranscriptRepo) MarkRated(ctx context.Context, transcriptID string, rating *models.Rating, ratedAt time.Time) error {
	if f.markRatedErr != nil {
		return f.markRatedErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.records[transcriptID]
	if !ok || t.Status != models.TranscriptStatusPending {
		return utils.ErrConflict
	}
	t.Status = models.TranscriptStatusRated
	t.Rating = rating
	at := ratedAt.UTC()
	t.RatedAt = &at
	return nil
}

func (f *fakeTranscriptRepo) MarkError(ctx context.Context, transcriptID string, category string) error {
	if f.markErrorErr != nil {
		return f.markErrorErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.records[transcriptID]
	if !ok || t.Status != models.TranscriptStatusPending {
		return utils.ErrConflict
	}
	t.Status = models.TranscriptStatusError
	t.ErrorCategory = category
	return nil
}

func (f *fakeTranscriptRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, t := range f.records {
		if !now.Before(t.ExpiresAt) {
			delete(f.records, id)
			n++
		}
	}
	return n, nil
}

// fakeSessionRepo mirrors the Mongo SessionRepository, including the
// stage-guard behaviour of SetStage.
type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*models.Session{}}
}

func (f *fakeSessionRepo) get(id string) *models.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[id]; ok {
		cp := *s
		cp.Entries = append([]models.SessionEntry(nil), s.Entries...)
		return &cp
	}
	return nil
}

func (f *fakeSessionRepo) Create(ctx context.Context, s *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.sessions[s.SessionID] = &cp
	return nil
}

func (f *fakeSessionRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.Session, error) {
	if s := f.get(sessionID); s != nil {
		return s, nil
	}
	return nil, utils.ErrNotFound
}

func (f *fakeSessionRepo) AppendEntry(ctx context.Context, sessionID string, e models.SessionEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok {
		return utils.ErrNotFound
	}
	s.Entries = append(s.Entries, e)
	return nil
}

func (f *fakeSessionRepo) SetStage(ctx context.Context, sessionID, stage, to string, from ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok {
		return utils.ErrConflict
	}
	cur := stageValue(&s.Processing, stage)
	if len(from) > 0 {
		matched := false
		for _, fv := range from {
			if cur == fv {
				matched = true
				break
			}
		}
		if !matched {
			return utils.ErrConflict
		}
	}
	setStageValue(&s.Processing, stage, to)
	return nil
}

func (f *fakeSessionRepo) End(ctx context.Context, sessionID string, endedAt time.Time, durationSeconds int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok {
		return utils.ErrNotFound
	}
	s.Status = models.SessionStatusEnded
	at := endedAt.UTC()
	s.EndedAt = &at
	s.DurationSeconds = durationSeconds
	return nil
}

func stageValue(p *models.ProcessingStatus, stage string) string {
	switch stage {
	case models.StageTranscription:
		return p.Transcription
	case models.StageAnalysis:
		return p.Analysis
	default:
		return p.Feedback
	}
}

func setStageValue(p *models.ProcessingStatus, stage, v string) {
	switch stage {
	case models.StageTranscription:
		p.Transcription = v
	case models.StageAnalysis:
		p.Analysis = v
	default:
		p.Feedback = v
	}
}

// fakeDocumentRepo serves a fixed document list.
type fakeDocumentRepo struct {
	docs []models.Document
	err  error
}

func (f *fakeDocumentRepo) ListByUser(ctx context.Context, userID string) ([]models.Document, error) {
	return f.docs, f.err
}

func (f *fakeDocumentRepo) ListCompletedByUser(ctx context.Context, userID string) ([]models.Document, error) {
	return f.docs, f.err
}

// fakeProfileRepo returns a fixed profile, or not-found when nil.
type fakeProfileRepo struct {
	profile *models.Profile
}

func (f *fakeProfileRepo) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	if f.profile == nil {
		return nil, utils.ErrNotFound
	}
	return f.profile, nil
}

func (f *fakeProfileRepo) Upsert(ctx context.Context, p *models.Profile) error {
	f.profile = p
	return nil
}

// fakeProvider records calls and delegates to analyzeFn.
type fakeProvider struct {
	mu        sync.Mutex
	calls     int
	lastReq   analysis.Request
	analyzeFn func(ctx context.Context, req analysis.Request) (*models.Rating, error)
}

func (f *fakeProvider) Analyze(ctx context.Context, req analysis.Request) (*models.Rating, error) {
	f.mu.Lock()
	f.calls++
	f.lastReq = req
	fn := f.analyzeFn
	f.mu.Unlock()
	if fn == nil {
		return validRating(), nil
	}
	return fn(ctx, req)
}

func (f *fakeProvider) Close() error { return nil }

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeCache is an in-memory Cache without TTL enforcement.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}}
}

func (f *fakeCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.entries[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, nil
	}
	return true, nil
}

func (f *fakeCache) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = b
	return nil
}

func (f *fakeCache) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.entries, k)
	}
	return nil
}

func validRating() *models.Rating {
	return &models.Rating{
		OverallRating: 8.2,
		Strengths:     []string{"clear structure"},
		Weaknesses:    []string{"few concrete examples"},
		Recommendations: []models.Recommendation{
			{Area: "storytelling", Suggestion: "use the STAR format", Priority: "high"},
		},
		DetailedScores: models.DetailedScores{
			ContentRelevance: 80, Communication: 85, Confidence: 75, Structure: 82, Engagement: 78,
		},
		Summary: "Solid performance with room for more specificity.",
	}
}

func pendingTranscript(userID string) *models.Transcript {
	now := time.Now().UTC()
	return &models.Transcript{
		TranscriptID: "t-1",
		UserID:       userID,
		Messages: []models.TranscriptMessage{
			{Speaker: models.SpeakerAI, Text: "Tell me about yourself.", Timestamp: now},
			{Speaker: models.SpeakerUser, Text: "I am a backend engineer.", Timestamp: now},
		},
		Context:   models.InterviewContext{InterviewType: "behavioral", Difficulty: "medium"},
		Status:    models.TranscriptStatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(24 * time.Hour),
	}
}
