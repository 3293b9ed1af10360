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

type SessionRepository interface {
	Create(ctx context.Context, s *models.Session) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.Session, error)
	AppendEntry(ctx context.Context, sessionID string, e models.SessionEntry) error
	// SetStage advances one processing flag to `to`, conditional on the flag
	// currently holding one of `from`. Returns utils.ErrConflict when the
	// guard did not match, which keeps the flags monotonic.
	SetStage(ctx context.Context, sessionID, stage, to string, from ...string) error
	End(ctx context.Context, sessionID string, endedAt time.Time, durationSeconds int64) error
}

type sessionRepo struct {
	col *mongo.Collection
}

func NewSessionRepo(db *mongo.Database) SessionRepository {
	return &sessionRepo{col: db.Collection("sessions")}
}

func (r *sessionRepo) Create(ctx context.Context, s *models.Session) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, s)
	return err
}

func (r *sessionRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.Session, error) {
	var s models.Session
	err := r.col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &s, err
}

func (r *sessionRepo) AppendEntry(ctx context.Context, sessionID string, e models.SessionEntry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	res, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$push": bson.M{"entries": e}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *sessionRepo) SetStage(ctx context.Context, sessionID, stage, to string, from ...string) error {
	filter := bson.M{"session_id": sessionID}
	if len(from) > 0 {
		filter["processing_status."+stage] = bson.M{"$in": from}
	}
	res, err := r.col.UpdateOne(ctx, filter,
		bson.M{"$set": bson.M{"processing_status." + stage: to}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return utils.ErrConflict
	}
	return nil
}

func (r *sessionRepo) End(ctx context.Context, sessionID string, endedAt time.Time, durationSeconds int64) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$set": bson.M{
			"status":           models.SessionStatusEnded,
			"ended_at":         endedAt.UTC(),
			"duration_seconds": durationSeconds,
		}},
	)
	return err
}
