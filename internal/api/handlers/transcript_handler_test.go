package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/prepforge/prepforge/internal/models"
	"github.com/prepforge/prepforge/internal/services"
	"github.com/prepforge/prepforge/internal/utils"
)

type stubTranscriptService struct {
	created *models.Transcript
	err     error
}

func (s *stubTranscriptService) Create(ctx context.Context, userID string, messages []models.TranscriptMessage, ictx models.InterviewContext) (*models.Transcript, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.created, nil
}

func (s *stubTranscriptService) GetOwned(ctx context.Context, transcriptID, requesterID string) (*models.Transcript, error) {
	return nil, utils.ErrNotFound
}

func (s *stubTranscriptService) PurgeExpired(ctx context.Context) (int64, error) { return 0, nil }

type stubRatingService struct {
	resp         *services.RatingResponse
	err          error
	gotInclude   bool
	gotID        string
	gotRequester string
}

func (s *stubRatingService) Generate(ctx context.Context, transcriptID, requesterID string, includeDocuments bool) (*services.RatingResponse, error) {
	s.gotID = transcriptID
	s.gotRequester = requesterID
	s.gotInclude = includeDocuments
	return s.resp, s.err
}

func (s *stubRatingService) Get(ctx context.Context, transcriptID, requesterID string) (*services.RatingResponse, error) {
	s.gotID = transcriptID
	s.gotRequester = requesterID
	return s.resp, s.err
}

func newTranscriptRouter(h *TranscriptHandler, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set("user_id", userID)
		}
	})
	r.POST("/transcripts", h.Create)
	r.POST("/transcripts/:transcript_id/rating", h.GenerateRating)
	r.GET("/transcripts/:transcript_id/rating", h.GetRating)
	return r
}

func TestTranscriptCreateHandler(t *testing.T) {
	now := time.Now().UTC()
	ts := &stubTranscriptService{created: &models.Transcript{
		TranscriptID: "t-1",
		Status:       models.TranscriptStatusPending,
		ExpiresAt:    now.Add(24 * time.Hour),
	}}
	r := newTranscriptRouter(NewTranscriptHandler(ts, &stubRatingService{}), "u-1")

	body := `{"messages":[{"speaker":"ai","text":"Q"},{"speaker":"user","text":"A"}]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/transcripts", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, w.Body.String(), `"transcript_id":"t-1"`)
	require.Contains(t, w.Body.String(), `"status":"pending"`)
}

func TestTranscriptCreateHandlerRejectsBadBody(t *testing.T) {
	r := newTranscriptRouter(NewTranscriptHandler(&stubTranscriptService{}, &stubRatingService{}), "u-1")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/transcripts", strings.NewReader(`{"messages":[]}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "INVALID_ARGUMENT")
}

func TestTranscriptCreateHandlerUnauthorized(t *testing.T) {
	r := newTranscriptRouter(NewTranscriptHandler(&stubTranscriptService{}, &stubRatingService{}), "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/transcripts", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGenerateRatingHandlerEmptyBodyAllowed(t *testing.T) {
	rs := &stubRatingService{resp: &services.RatingResponse{TranscriptID: "t-1", Status: models.TranscriptStatusRated}}
	r := newTranscriptRouter(NewTranscriptHandler(&stubTranscriptService{}, rs), "u-1")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/transcripts/t-1/rating", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "t-1", rs.gotID)
	require.Equal(t, "u-1", rs.gotRequester)
	require.False(t, rs.gotInclude)
}

func TestGenerateRatingHandlerIncludeDocuments(t *testing.T) {
	rs := &stubRatingService{resp: &services.RatingResponse{TranscriptID: "t-1", Status: models.TranscriptStatusRated}}
	r := newTranscriptRouter(NewTranscriptHandler(&stubTranscriptService{}, rs), "u-1")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/transcripts/t-1/rating", strings.NewReader(`{"include_documents":true}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, rs.gotInclude)
}

func TestGenerateRatingHandlerMapsErrorCodes(t *testing.T) {
	cases := []struct {
		code   utils.Code
		status int
	}{
		{utils.CodeConflict, http.StatusConflict},
		{utils.CodeNotFound, http.StatusNotFound},
		{utils.CodeForbidden, http.StatusForbidden},
		{utils.CodeRateLimited, http.StatusTooManyRequests},
		{utils.CodeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			rs := &stubRatingService{err: utils.E(tc.code, "RatingService.Generate", "nope", nil)}
			r := newTranscriptRouter(NewTranscriptHandler(&stubTranscriptService{}, rs), "u-1")

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/transcripts/t-1/rating", nil)
			r.ServeHTTP(w, req)

			require.Equal(t, tc.status, w.Code)
			require.Contains(t, w.Body.String(), string(tc.code))
		})
	}
}

func TestGetRatingHandler(t *testing.T) {
	rs := &stubRatingService{resp: &services.RatingResponse{
		TranscriptID: "t-1",
		Status:       models.TranscriptStatusRated,
		Rating:       &models.Rating{OverallRating: 9, Summary: "strong"},
	}}
	r := newTranscriptRouter(NewTranscriptHandler(&stubTranscriptService{}, rs), "u-1")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/transcripts/t-1/rating", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"overall_rating":9`)
}
