package gemini

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"google.golang.org/genai"

	appconfig "audio2json/internal/app/config"
	apperrors "audio2json/internal/app/errors"
	"audio2json/internal/app/model"
)

// Client implements api.RemoteService on top of the Gemini API.
// Generation settings and the system instruction are fixed at construction.
type Client struct {
	client        *genai.Client
	model         string
	contentConfig *genai.GenerateContentConfig
	logger        *zap.Logger
}

// NewClient creates a Gemini client from the run configuration.
func NewClient(ctx context.Context, cfg *appconfig.TranscribeConfig, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.ErrMissingAPIKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" || cfg.APIVersion != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{
			BaseURL:    cfg.BaseURL,
			APIVersion: cfg.APIVersion,
		}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		client:        client,
		model:         cfg.Model,
		contentConfig: buildContentConfig(cfg),
		logger:        logger.Named("gemini"),
	}, nil
}

func buildContentConfig(cfg *appconfig.TranscribeConfig) *genai.GenerateContentConfig {
	gen := cfg.Generation
	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(cfg.Prompts.System, genai.RoleUser),
		Temperature:       genai.Ptr(gen.Temperature),
		TopP:              genai.Ptr(gen.TopP),
		TopK:              genai.Ptr(gen.TopK),
		MaxOutputTokens:   gen.MaxOutputTokens,
		ResponseMIMEType:  gen.ResponseMIMEType,
	}
}

// Upload stores the file with the Files API. The API answers with a single
// file, returned as a one-element slice.
func (c *Client) Upload(ctx context.Context, path string, mimeType string) ([]model.Asset, error) {
	file, err := c.client.Files.UploadFromPath(ctx, path, &genai.UploadFileConfig{
		MIMEType:    mimeType,
		DisplayName: filepath.Base(path),
	})
	if err != nil {
		return nil, apperrors.WithKind(apperrors.ErrUploadFailed, err)
	}

	c.logger.Debug("Uploaded file",
		zap.String("file", path),
		zap.String("name", file.Name),
		zap.String("uri", file.URI),
		zap.String("state", string(file.State)))

	return []model.Asset{assetFromFile(file)}, nil
}

// GetAsset fetches the current state of an uploaded file.
func (c *Client) GetAsset(ctx context.Context, name string) (model.Asset, error) {
	file, err := c.client.Files.Get(ctx, name, nil)
	if err != nil {
		return model.Asset{}, fmt.Errorf("failed to get file %s: %w", name, err)
	}
	return assetFromFile(file), nil
}

// Converse starts a chat whose history holds the uploaded files as the user's
// first turn, then sends prompt and returns the model's text reply.
func (c *Client) Converse(ctx context.Context, assets []model.Asset, prompt string) (string, error) {
	parts := lo.Map(assets, func(a model.Asset, _ int) *genai.Part {
		return genai.NewPartFromURI(a.URI, a.MIMEType)
	})
	history := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	chat, err := c.client.Chats.Create(ctx, c.model, c.contentConfig, history)
	if err != nil {
		return "", apperrors.WithKind(apperrors.ErrRequestFailed, err)
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: prompt})
	if err != nil {
		return "", apperrors.WithKind(apperrors.ErrRequestFailed, err)
	}
	if len(resp.Candidates) == 0 {
		return "", apperrors.WithKind(apperrors.ErrRequestFailed, fmt.Errorf("model %s returned no candidates", c.model))
	}
	if reason := resp.Candidates[0].FinishReason; reason == genai.FinishReasonMaxTokens {
		c.logger.Warn("Response truncated at max output tokens",
			zap.String("model", c.model),
			zap.Int32("max_output_tokens", c.contentConfig.MaxOutputTokens))
	}

	return resp.Text(), nil
}

func assetFromFile(file *genai.File) model.Asset {
	asset := model.Asset{
		Name:     file.Name,
		URI:      file.URI,
		MIMEType: file.MIMEType,
	}

	switch file.State {
	case genai.FileStateActive:
		asset.State = model.AssetStateActive
	case genai.FileStateFailed:
		asset.State = model.AssetStateFailed
		if file.Error != nil {
			asset.Error = file.Error.Message
		}
	default:
		// PROCESSING and STATE_UNSPECIFIED both mean "not usable yet".
		asset.State = model.AssetStatePending
	}

	return asset
}
