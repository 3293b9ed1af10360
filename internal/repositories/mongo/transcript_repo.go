package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/prepforge/prepforge/internal/models"
	"github.com/prepforge/prepforge/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type TranscriptRepository interface {
	Create(ctx context.Context, t *models.Transcript) error
	GetByTranscriptID(ctx context.Context, transcriptID string) (*models.Transcript, error)
	// MarkRated moves pending -> rated. The update is conditional on the
	// current status so concurrent generation attempts cannot both win;
	// returns utils.ErrConflict when the guard did not match.
	MarkRated(ctx context.Context, transcriptID string, rating *models.Rating, ratedAt time.Time) error
	// MarkError moves pending -> error with the recorded failure category,
	// under the same status guard as MarkRated.
	MarkError(ctx context.Context, transcriptID string, category string) error
	// DeleteExpired removes every transcript past its expires_at, regardless
	// of status, and reports how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type transcriptRepo struct {
	col *mongo.Collection
}

func NewTranscriptRepo(db *mongo.Database) TranscriptRepository {
	return &transcriptRepo{col: db.Collection("transcripts")}
}

func (r *transcriptRepo) Create(ctx context.Context, t *models.Transcript) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, t)
	return err
}

func (r *transcriptRepo) GetByTranscriptID(ctx context.Context, transcriptID string) (*models.Transcript, error) {
	var t models.Transcript
	err := r.col.FindOne(ctx, bson.M{"transcript_id": transcriptID}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &t, err
}

func (r *transcriptRepo) MarkRated(ctx context.Context, transcriptID string, rating *models.Rating, ratedAt time.Time) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"transcript_id": transcriptID, "status": models.TranscriptStatusPending},
		bson.M{"$set": bson.M{
			"status":   models.TranscriptStatusRated,
			"rating":   rating,
			"rated_at": ratedAt.UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return utils.ErrConflict
	}
	return nil
}

func (r *transcriptRepo) MarkError(ctx context.Context, transcriptID string, category string) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"transcript_id": transcriptID, "status": models.TranscriptStatusPending},
		bson.M{"$set": bson.M{
			"status":         models.TranscriptStatusError,
			"error_category": category,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return utils.ErrConflict
	}
	return nil
}

func (r *transcriptRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now.UTC()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
