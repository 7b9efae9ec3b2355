//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/google/wire"
	"go.uber.org/zap"

	"audio2json/internal/app/api"
	"audio2json/internal/app/api/gemini"
	appconfig "audio2json/internal/app/config"
	"audio2json/internal/app/metrics"
	"audio2json/internal/app/pipeline"
)

// InitializePipeline wires a Gemini-backed pipeline for one run.
func InitializePipeline(ctx context.Context, cfg *appconfig.TranscribeConfig, logger *zap.Logger, progress pipeline.ProgressConfig) (*pipeline.Pipeline, error) {
	wire.Build(
		gemini.NewClient,
		wire.Bind(new(api.RemoteService), new(*gemini.Client)),
		metrics.NewRecorder,
		pipeline.NewPipeline,
	)
	return &pipeline.Pipeline{}, nil
}
