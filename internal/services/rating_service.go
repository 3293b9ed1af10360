package services

import (
	"context"
	"errors"
	"time"

	"github.com/prepforge/prepforge/internal/cache"
	"github.com/prepforge/prepforge/internal/models"
	"github.com/prepforge/prepforge/internal/providers/analysis"
	mongorepo "github.com/prepforge/prepforge/internal/repositories/mongo"
	"github.com/prepforge/prepforge/internal/utils"
)

// RatingResponse is the payload returned by both the generation and the
// retrieval paths.
type RatingResponse struct {
	TranscriptID     string                  `json:"transcript_id"`
	Status           string                  `json:"status"`
	Rating           *models.Rating          `json:"rating"`
	RatedAt          *time.Time              `json:"rated_at,omitempty"`
	MessageCount     int                     `json:"message_count"`
	UserMessageCount int                     `json:"user_message_count"`
	Context          models.InterviewContext `json:"context"`
	ExpiresAt        time.Time               `json:"expires_at"`

	// Only set on the generation path when document aggregation ran.
	Aggregation *AggregationResult `json:"aggregation,omitempty"`
}

// RatingService is the orchestrator for the transcript rating pipeline. It
// guarantees the external analysis service is invoked at most once per
// transcript: the status guard on the conditional updates makes the second
// of two racing generation calls lose and report CONFLICT.
type RatingService interface {
	Generate(ctx context.Context, transcriptID, requesterID string, includeDocuments bool) (*RatingResponse, error)
	Get(ctx context.Context, transcriptID, requesterID string) (*RatingResponse, error)
}

type ratingService struct {
	transcripts mongorepo.TranscriptRepository
	aggregator  AggregatorService
	provider    analysis.Provider
	cache       cache.Cache // optional; only rated payloads are cached

	timeout     time.Duration
	tokenBudget int
}

func NewRatingService(transcripts mongorepo.TranscriptRepository, aggregator AggregatorService, provider analysis.Provider, c cache.Cache, timeout time.Duration, tokenBudget int) RatingService {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	if tokenBudget <= 0 {
		tokenBudget = DefaultTokenBudget
	}
	return &ratingService{
		transcripts: transcripts,
		aggregator:  aggregator,
		provider:    provider,
		cache:       c,
		timeout:     timeout,
		tokenBudget: tokenBudget,
	}
}

// cachedRating is the cache entry for a rated transcript. Owner and expiry
// travel with the payload so cache hits still enforce both.
type cachedRating struct {
	OwnerID   string         `json:"owner_id"`
	ExpiresAt time.Time      `json:"expires_at"`
	Payload   RatingResponse `json:"payload"`
}

func ratingCacheKey(transcriptID string) string {
	return "transcript:" + transcriptID + ":rating"
}

func (s *ratingService) Generate(ctx context.Context, transcriptID, requesterID string, includeDocuments bool) (*RatingResponse, error) {
	const op = "RatingService.Generate"

	t, err := s.loadOwned(ctx, op, transcriptID, requesterID)
	if err != nil {
		return nil, err
	}

	switch t.Status {
	case models.TranscriptStatusPending:
	case models.TranscriptStatusRated:
		return nil, utils.E(utils.CodeConflict, op, "rating already generated", nil)
	default:
		// error is terminal for this transcript id; a new transcript is the
		// only retry path, which keeps a poison record from looping.
		return nil, utils.E(utils.CodeConflict, op, "rating generation already attempted for this transcript", nil)
	}

	if !t.Ratable() {
		return nil, utils.E(utils.CodeInvalidArgument, op, "transcript must contain at least one message from each speaker", nil)
	}

	var supplemental string
	var aggMeta *AggregationResult
	if includeDocuments {
		agg, aggErr := s.aggregator.Aggregate(ctx, t.UserID, s.tokenBudget)
		if aggErr != nil {
			// datastore fault, not "no documents" — that is a valid empty result
			return nil, aggErr
		}
		supplemental = agg.Text
		aggMeta = agg
	}

	// The external call is the single suspension point. It is detached from
	// request cancellation: once issued it runs to its own deadline, and its
	// outcome is persisted even if the original caller stopped waiting.
	dctx := context.WithoutCancel(ctx)
	callCtx, cancel := context.WithTimeout(dctx, s.timeout)
	defer cancel()

	rating, aerr := s.provider.Analyze(callCtx, analysis.Request{
		Messages:            t.Messages,
		Context:             t.Context,
		SupplementalContent: supplemental,
	})
	if aerr != nil {
		return nil, s.persistFailure(dctx, op, t.TranscriptID, aerr)
	}

	ratedAt := time.Now().UTC()
	if err := s.transcripts.MarkRated(dctx, t.TranscriptID, rating, ratedAt); err != nil {
		if errors.Is(err, utils.ErrConflict) {
			// A concurrent call moved the status first; its result stands.
			return nil, utils.E(utils.CodeConflict, op, "rating already generated", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to persist rating", err)
	}

	t.Status = models.TranscriptStatusRated
	t.Rating = rating
	t.RatedAt = &ratedAt

	resp := buildRatingResponse(t)
	resp.Aggregation = aggMeta
	s.cacheSet(dctx, t, resp)
	return resp, nil
}

func (s *ratingService) Get(ctx context.Context, transcriptID, requesterID string) (*RatingResponse, error) {
	const op = "RatingService.Get"

	if transcriptID == "" || requesterID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "transcript_id and requester id are required", nil)
	}

	if s.cache != nil {
		var ce cachedRating
		if hit, _ := s.cache.GetJSON(ctx, ratingCacheKey(transcriptID), &ce); hit {
			if !time.Now().UTC().Before(ce.ExpiresAt) {
				return nil, utils.E(utils.CodeNotFound, op, "rating not found", nil)
			}
			if ce.OwnerID != requesterID {
				return nil, utils.E(utils.CodeForbidden, op, "forbidden", nil)
			}
			return &ce.Payload, nil
		}
	}

	t, err := s.loadOwned(ctx, op, transcriptID, requesterID)
	if err != nil {
		return nil, err
	}

	// pending and error are both absent from the read path: a rating that
	// does not exist yet and one that never will are the same to the caller.
	if t.Status != models.TranscriptStatusRated {
		return nil, utils.E(utils.CodeNotFound, op, "rating not found", nil)
	}

	resp := buildRatingResponse(t)
	s.cacheSet(ctx, t, resp)
	return resp, nil
}

// loadOwned applies the shared access rules: absent or expired is NOT_FOUND
// (deliberately indistinguishable), wrong owner is FORBIDDEN.
func (s *ratingService) loadOwned(ctx context.Context, op, transcriptID, requesterID string) (*models.Transcript, error) {
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
	if t.Expired(time.Now().UTC()) {
		return nil, utils.E(utils.CodeNotFound, op, "transcript not found", nil)
	}
	if t.UserID != requesterID {
		return nil, utils.E(utils.CodeForbidden, op, "forbidden", nil)
	}
	return t, nil
}

// persistFailure records the analysis failure on the transcript before
// surfacing it, so later retrievals see the terminal state without another
// upstream call.
func (s *ratingService) persistFailure(ctx context.Context, op, transcriptID string, aerr error) error {
	category := analysis.Category(aerr)

	if err := s.transcripts.MarkError(ctx, transcriptID, category); err != nil && !errors.Is(err, utils.ErrConflict) {
		return utils.E(utils.CodeInternal, op, "failed to record analysis failure", errors.Join(aerr, err))
	}

	if category == models.ErrorCategoryRateLimit {
		return utils.E(utils.CodeRateLimited, op, "analysis service rate limit exceeded, retry later with a new transcript", aerr)
	}
	return utils.E(utils.CodeUnavailable, op, "analysis service failed: "+category, aerr)
}

func buildRatingResponse(t *models.Transcript) *RatingResponse {
	userMsgs := 0
	for _, m := range t.Messages {
		if m.Speaker == models.SpeakerUser {
			userMsgs++
		}
	}
	return &RatingResponse{
		TranscriptID:     t.TranscriptID,
		Status:           t.Status,
		Rating:           t.Rating,
		RatedAt:          t.RatedAt,
		MessageCount:     len(t.Messages),
		UserMessageCount: userMsgs,
		Context:          t.Context,
		ExpiresAt:        t.ExpiresAt,
	}
}

func (s *ratingService) cacheSet(ctx context.Context, t *models.Transcript, resp *RatingResponse) {
	if s.cache == nil {
		return
	}
	ttl := time.Until(t.ExpiresAt)
	if ttl <= 0 {
		return
	}
	entry := cachedRating{OwnerID: t.UserID, ExpiresAt: t.ExpiresAt, Payload: *resp}
	entry.Payload.Aggregation = nil // generation-only metadata, not part of the read payload
	_ = s.cache.SetJSON(ctx, ratingCacheKey(t.TranscriptID), entry, ttl)
}
