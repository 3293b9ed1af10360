package services

import (
	"context"

	"github.com/prepforge/prepforge/internal/models"
	pgrepo "github.com/prepforge/prepforge/internal/repositories/postgres"
	"github.com/prepforge/prepforge/internal/utils"
)

// DocumentService exposes the user's uploaded documents as written by the
// external upload/extraction pipeline. Strictly read-only here.
type DocumentService interface {
	ListMine(ctx context.Context, userID string) ([]models.Document, error)
}

type documentService struct {
	documents pgrepo.DocumentRepository
}

func NewDocumentService(documents pgrepo.DocumentRepository) DocumentService {
	return &documentService{documents: documents}
}

func (s *documentService) ListMine(ctx context.Context, userID string) ([]models.Document, error) {
	const op = "DocumentService.ListMine"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	rows, err := s.documents.ListByUser(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list documents", err)
	}
	return rows, nil
}
