package domain

import "time"

// AssetKind distinguishes seller uploads from generated outputs.
type AssetKind string

const (
	AssetKindInput  AssetKind = "input"
	AssetKindOutput AssetKind = "output"
)

// Asset is a stored image, either uploaded by the seller or produced by a
// generation job. Output assets reference their input via SourceAssetID and
// carry the prompt audit payload that produced them.
type Asset struct {
	ID            string
	UserID        string
	ProjectID     string
	Kind          AssetKind
	Mode          Mode // empty for plain uploads
	SourceAssetID *string
	PromptVersion string
	PromptPayload []byte // JSON audit object, outputs only
	StoragePath   string
	MimeType      string
	Width         int
	Height        int
	Bytes         int64
	CreatedAt     time.Time
}
