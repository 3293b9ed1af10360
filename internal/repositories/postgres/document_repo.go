package postgres

import (
	"context"

	"github.com/prepforge/prepforge/internal/models"
	"gorm.io/gorm"
)

// DocumentRepository is a read-only view over the table written by the
// external upload/extraction pipeline.
type DocumentRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Document, error)
	// ListCompletedByUser returns only rows eligible for aggregation:
	// extraction finished and text present, upload time ascending.
	ListCompletedByUser(ctx context.Context, userID string) ([]models.Document, error)
}

type documentRepo struct {
	db *gorm.DB
}

func NewDocumentRepo(db *gorm.DB) DocumentRepository {
	return &documentRepo{db: db}
}

func (r *documentRepo) ListByUser(ctx context.Context, userID string) ([]models.Document, error) {
	var rows []models.Document
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("upload_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *documentRepo) ListCompletedByUser(ctx context.Context, userID string) ([]models.Document, error) {
	var rows []models.Document
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND processing_status = ? AND extracted_text <> ''", userID, models.DocumentStatusCompleted).
		Order("upload_at ASC").
		Find(&rows).Error
	return rows, err
}
