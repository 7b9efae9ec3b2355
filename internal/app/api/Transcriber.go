package api

import (
	"context"

	"audio2json/internal/app/model"
)

// RemoteService is the capability surface of the remote model provider:
// file storage plus a single-turn conversation over stored files.
type RemoteService interface {
	// Upload transfers the file at path and returns one or more asset handles.
	Upload(ctx context.Context, path string, mimeType string) ([]model.Asset, error)
	// GetAsset refreshes the processing state of a previously uploaded asset.
	GetAsset(ctx context.Context, name string) (model.Asset, error)
	// Converse opens a fresh conversation seeded with assets as the first user
	// turn, sends prompt as the next turn, and returns the reply text.
	Converse(ctx context.Context, assets []model.Asset, prompt string) (string, error)
}
