package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/domain"
)

// OpenAIEditor edits product photos through the OpenAI images API.
type OpenAIEditor struct {
	client openai.Client
	model  string
}

// NewOpenAIEditor creates an OpenAI-backed editor.
func NewOpenAIEditor(apiKey, model string) (*OpenAIEditor, error) {
	if apiKey == "" {
		return nil, errors.New("openai: empty api key")
	}
	return &OpenAIEditor{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

func (o *OpenAIEditor) Name() string { return "openai" }

// Edit uploads the source image with the instruction and decodes the
// base64 result.
func (o *OpenAIEditor) Edit(ctx context.Context, req EditRequest) (*Edited, error) {
	res, err := o.client.Images.Edit(ctx, openai.ImageEditParams{
		Image: openai.ImageEditParamsImageUnion{
			OfFile: openai.File(bytes.NewReader(req.Image), "input.png", req.MimeType),
		},
		Prompt: req.Prompt,
		Model:  openai.ImageModel(o.model),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: openai: %v", domain.ErrProviderFailure, err)
	}
	if res == nil || len(res.Data) == 0 || res.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("%w: openai: response contained no image", domain.ErrProviderFailure)
	}
	data, err := base64.StdEncoding.DecodeString(res.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("%w: openai: decode image: %v", domain.ErrProviderFailure, err)
	}
	return &Edited{Data: data, MimeType: "image/png"}, nil
}

var _ Editor = (*OpenAIEditor)(nil)
