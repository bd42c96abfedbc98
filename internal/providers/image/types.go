// Package image defines the contract for external image-editing providers
// and the adapters implementing it.
package image

import (
	"context"
	"fmt"
	"strings"
)

// EditRequest carries the input photo and the instruction built for it.
type EditRequest struct {
	Image     []byte
	MimeType  string
	Prompt    string
	RequestID string
}

// Edited is the provider's output image.
type Edited struct {
	Data     []byte
	MimeType string
	Width    int
	Height   int
}

// Editor is the contract implemented by all image providers. A single call
// may take tens of seconds; providers do not retry internally.
type Editor interface {
	Name() string
	Edit(ctx context.Context, req EditRequest) (*Edited, error)
}

// Registry maps provider names to configured editors.
type Registry map[string]Editor

// Select returns the editor registered under name, or an error naming the
// unknown provider.
func (r Registry) Select(name string) (Editor, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if e, ok := r[name]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("image provider %q not configured", name)
}
