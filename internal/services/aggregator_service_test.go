package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prepforge/prepforge/internal/models"
	"github.com/prepforge/prepforge/internal/utils"
)

func TestAggregateNoDocumentsIsEmptyNotError(t *testing.T) {
	svc := NewAggregatorService(&fakeDocumentRepo{})

	res, err := svc.Aggregate(context.Background(), "u-1", DefaultTokenBudget)
	require.NoError(t, err)
	require.Empty(t, res.Text)
	require.Zero(t, res.FilesFound)
	require.Zero(t, res.FilesUsed)
	require.False(t, res.Truncated)
}

func TestAggregateRequiresOwner(t *testing.T) {
	svc := NewAggregatorService(&fakeDocumentRepo{})

	_, err := svc.Aggregate(context.Background(), "", DefaultTokenBudget)
	require.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestAggregatePacksWholeDocumentsWithSeparator(t *testing.T) {
	docs := []models.Document{
		{ExtractedText: "First document."},
		{ExtractedText: "Second document."},
	}
	svc := NewAggregatorService(&fakeDocumentRepo{docs: docs})

	res, err := svc.Aggregate(context.Background(), "u-1", DefaultTokenBudget)
	require.NoError(t, err)
	require.Equal(t, "First document.\n\n---\n\nSecond document.", res.Text)
	require.Equal(t, 2, res.FilesFound)
	require.Equal(t, 2, res.FilesUsed)
	require.Equal(t, len("First document.")+len("Second document."), res.TotalAvailableChars)
	require.False(t, res.Truncated)
}

func TestAggregateSkipsLaterDocumentsWhole(t *testing.T) {
	// budget of 10 tokens = 40 chars: the first doc fits, the second would
	// overflow and must be skipped entirely rather than cut.
	docs := []models.Document{
		{ExtractedText: strings.Repeat("a", 30)},
		{ExtractedText: strings.Repeat("b", 30)},
	}
	svc := NewAggregatorService(&fakeDocumentRepo{docs: docs})

	res, err := svc.Aggregate(context.Background(), "u-1", 10)
	require.NoError(t, err)
	require.Equal(t, strings.Repeat("a", 30), res.Text)
	require.Equal(t, 2, res.FilesFound)
	require.Equal(t, 1, res.FilesUsed)
	require.True(t, res.Truncated)
	require.Equal(t, 60, res.TotalAvailableChars)
}

func TestAggregateTruncatesOversizedFirstDocumentAtBoundary(t *testing.T) {
	// 10 tokens = 40 chars; the sentence end inside the head wins over a hard cut.
	text := "One short sentence here. Then a much longer tail that cannot possibly fit the budget."
	svc := NewAggregatorService(&fakeDocumentRepo{docs: []models.Document{{ExtractedText: text}}})

	res, err := svc.Aggregate(context.Background(), "u-1", 10)
	require.NoError(t, err)
	require.Equal(t, "One short sentence here.", res.Text)
	require.Equal(t, 1, res.FilesUsed)
	require.True(t, res.Truncated)
}

func TestAggregateZeroBudgetFallsBackToDefault(t *testing.T) {
	text := strings.Repeat("x", 100)
	svc := NewAggregatorService(&fakeDocumentRepo{docs: []models.Document{{ExtractedText: text}}})

	res, err := svc.Aggregate(context.Background(), "u-1", 0)
	require.NoError(t, err)
	require.Equal(t, text, res.Text)
	require.False(t, res.Truncated)
}

func TestTruncateAtBoundaryPrefersSentenceThenLineThenWord(t *testing.T) {
	require.Equal(t, "Alpha beta. Gamma delta.",
		truncateAtBoundary("Alpha beta. Gamma delta. Epsilon zeta eta theta", 30))

	require.Equal(t, "line one\nline two",
		truncateAtBoundary("line one\nline two\nline three x", 22))

	require.Equal(t, "word word word",
		truncateAtBoundary("word word word wordword", 18))

	// no boundary in the back half: hard cut
	require.Equal(t, strings.Repeat("z", 20), truncateAtBoundary(strings.Repeat("z", 50), 20))
}
