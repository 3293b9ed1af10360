package analysis

import (
	"context"
	"fmt"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"github.com/prepforge/prepforge/internal/models"
	"google.golang.org/api/iterator"
)

type VertexGemini struct {
	client *vertexgenai.Client
	model  *vertexgenai.GenerativeModel
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName string) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	m := c.GenerativeModel(modelName)
	return &VertexGemini{client: c, model: m}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

func (v *VertexGemini) Analyze(ctx context.Context, req Request) (*models.Rating, error) {
	var out strings.Builder

	it := v.model.GenerateContentStream(ctx, vertexgenai.Text(BuildPrompt(req)))
	for {
		resp, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, classifyVertexError(err)
		}

		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if t, ok := part.(vertexgenai.Text); ok && string(t) != "" {
					out.WriteString(string(t))
				}
			}
		}
	}

	if out.Len() == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedOutput)
	}
	return ParseRating([]byte(out.String()))
}

func classifyVertexError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "permission") || strings.Contains(msg, "unauthenticated") || strings.Contains(msg, "credential"):
		return fmt.Errorf("%w: %v", ErrAuth, err)
	case strings.Contains(msg, "resource exhausted") || strings.Contains(msg, "quota") || strings.Contains(msg, "429"):
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}
