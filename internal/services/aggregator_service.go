package services

import (
	"context"
	"strings"

	pgrepo "github.com/prepforge/prepforge/internal/repositories/postgres"
	"github.com/prepforge/prepforge/internal/utils"
)

// Rough chars-per-token heuristic used to turn a token budget into a
// character budget.
const charsPerToken = 4

const DefaultTokenBudget = 2000

const documentSeparator = "\n\n---\n\n"

// AggregationResult carries the budgeted text block plus accounting metadata.
// An empty Text with FilesFound == 0 is a valid result, not an error.
type AggregationResult struct {
	Text                string `json:"-"`
	FilesFound          int    `json:"files_found"`
	FilesUsed           int    `json:"files_used"`
	TotalAvailableChars int    `json:"total_available_chars"`
	Truncated           bool   `json:"truncated"`
}

// AggregatorService builds the supplementary text block injected into an
// analysis request from the owner's extracted documents. Read-only and
// deliberately uncached: every call is a fresh scoped query.
type AggregatorService interface {
	Aggregate(ctx context.Context, ownerID string, tokenBudget int) (*AggregationResult, error)
}

type aggregatorService struct {
	documents pgrepo.DocumentRepository
}

func NewAggregatorService(documents pgrepo.DocumentRepository) AggregatorService {
	return &aggregatorService{documents: documents}
}

func (s *aggregatorService) Aggregate(ctx context.Context, ownerID string, tokenBudget int) (*AggregationResult, error) {
	const op = "AggregatorService.Aggregate"

	if ownerID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "owner_id is required", nil)
	}
	if tokenBudget <= 0 {
		tokenBudget = DefaultTokenBudget
	}
	budget := tokenBudget * charsPerToken

	docs, err := s.documents.ListCompletedByUser(ctx, ownerID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to query documents", err)
	}

	res := &AggregationResult{FilesFound: len(docs)}
	var b strings.Builder

	for _, d := range docs {
		text := strings.TrimSpace(d.ExtractedText)
		res.TotalAvailableChars += len(text)

		need := len(text)
		if b.Len() > 0 {
			need += len(documentSeparator)
		}

		switch {
		case b.Len()+need <= budget:
			if b.Len() > 0 {
				b.WriteString(documentSeparator)
			}
			b.WriteString(text)
			res.FilesUsed++
		case res.FilesUsed == 0:
			// Even the first document overflows the budget. Better a clean
			// head cut than nothing at all.
			b.WriteString(truncateAtBoundary(text, budget))
			res.FilesUsed++
			res.Truncated = true
		default:
			// Later documents are skipped whole rather than cut mid-text.
			res.Truncated = true
		}
	}

	res.Text = b.String()
	return res, nil
}

// truncateAtBoundary cuts text to at most limit chars, preferring a sentence
// end, then a line break, then a word break over a hard cut.
func truncateAtBoundary(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	head := text[:limit]
	for _, sep := range []string{". ", "\n", " "} {
		if i := strings.LastIndex(head, sep); i > limit/2 {
			return strings.TrimSpace(head[:i+1])
		}
	}
	return head
}
