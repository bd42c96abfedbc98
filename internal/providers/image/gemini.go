package image

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/domain"
)

// GeminiEditor edits product photos through the Gemini API using the
// official SDK.
type GeminiEditor struct {
	client *genai.Client
	model  string
}

// NewGeminiEditor creates a Gemini-backed editor.
func NewGeminiEditor(ctx context.Context, apiKey, model string) (*GeminiEditor, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiEditor{client: c, model: model}, nil
}

func (g *GeminiEditor) Name() string { return "gemini" }

// Edit sends the source image and instruction in a single generate call and
// returns the first inline image from the response.
func (g *GeminiEditor) Edit(ctx context.Context, req EditRequest) (*Edited, error) {
	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: req.MimeType, Data: req.Image}},
			{Text: req.Prompt},
		},
	}}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: gemini: %v", domain.ErrProviderFailure, err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("%w: gemini: empty response", domain.ErrProviderFailure)
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return &Edited{
				Data:     part.InlineData.Data,
				MimeType: part.InlineData.MIMEType,
			}, nil
		}
	}
	return nil, fmt.Errorf("%w: gemini: response contained no image", domain.ErrProviderFailure)
}

var _ Editor = (*GeminiEditor)(nil)
