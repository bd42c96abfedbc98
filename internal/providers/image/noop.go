package image

import (
	"bytes"
	"context"
	"crypto/sha256"
	"image"
	"image/color"
	"image/draw"
	"image/png"
)

// NoopEditor produces deterministic synthetic images so local and CI
// environments work without provider credentials. The fill color is derived
// from the prompt, which makes distinct requests distinguishable by eye.
type NoopEditor struct{}

func NewNoopEditor() *NoopEditor { return &NoopEditor{} }

func (n *NoopEditor) Name() string { return "noop" }

func (n *NoopEditor) Edit(ctx context.Context, req EditRequest) (*Edited, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sum := sha256.Sum256([]byte(req.Prompt))
	fill := color.RGBA{R: sum[0], G: sum[1], B: sum[2], A: 255}

	const w, h = 512, 512
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: fill}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return &Edited{Data: buf.Bytes(), MimeType: "image/png", Width: w, Height: h}, nil
}

var _ Editor = (*NoopEditor)(nil)
