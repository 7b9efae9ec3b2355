package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"audio2json/internal/app/api"
	appconfig "audio2json/internal/app/config"
	apperrors "audio2json/internal/app/errors"
	"audio2json/internal/app/metrics"
	"audio2json/internal/app/model"
	"audio2json/internal/app/util/files"
)

const progressDescription = "Processing audio files"

// Pipeline turns audio files into JSON transcriptions, one file at a time.
// A failure is confined to the file it happened on.
type Pipeline struct {
	service  api.RemoteService
	config   *appconfig.TranscribeConfig
	logger   *zap.Logger
	metrics  *metrics.Recorder
	progress *ProgressManager
	poller   *Poller
}

func NewPipeline(
	service api.RemoteService,
	config *appconfig.TranscribeConfig,
	logger *zap.Logger,
	recorder *metrics.Recorder,
	progress ProgressConfig,
) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = metrics.NewRecorder()
	}
	return &Pipeline{
		service:  service,
		config:   config,
		logger:   logger,
		metrics:  recorder,
		progress: NewProgressManager(progress),
		poller:   NewPoller(service, PollPolicyFromConfig(config.Polling), logger),
	}
}

func (p *Pipeline) Metrics() *metrics.Recorder {
	return p.metrics
}

func (p *Pipeline) Close() error {
	p.progress.Shutdown()
	return nil
}

// Run processes audioFiles in order. Per-file failures are logged and counted
// in the summary; only setup failures (output directory) and cancellation of
// ctx are returned as errors.
func (p *Pipeline) Run(ctx context.Context, audioFiles []model.AudioFile) (*model.Summary, error) {
	if err := files.EnsureDirectory(p.config.OutputDir); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := p.logger.With(zap.String("run_id", runID))
	summary := &model.Summary{RunID: runID}

	plan := PlanOutputs(audioFiles, p.config.OutputDir, p.config.Output.Collision)
	for _, group := range plan.Collisions {
		logger.Warn("Input files share an output name",
			zap.Strings("files", fileNames(group)),
			zap.String("policy", p.config.Output.Collision))
	}

	logger.Info("Starting transcription run",
		zap.Int("files", len(audioFiles)),
		zap.String("model", p.config.Model),
		zap.String("output_dir", p.config.OutputDir))

	bar := p.progress.CreateBar(len(audioFiles), progressDescription)
	defer p.progress.Wait()
	defer bar.Complete()

	for _, f := range audioFiles {
		if err := ctx.Err(); err != nil {
			logger.Warn("Run interrupted", zap.Int("remaining", len(audioFiles)-len(summary.Results)))
			return summary, err
		}

		result := p.processFile(ctx, logger, f, plan.PathFor(f, p.config.OutputDir))
		summary.Add(result)
		bar.EwmaIncrement(result.Duration)
	}

	logger.Info("Transcription run finished",
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed))

	return summary, nil
}

func (p *Pipeline) processFile(ctx context.Context, runLogger *zap.Logger, f model.AudioFile, outputPath string) (result model.FileResult) {
	start := time.Now()
	logger := runLogger.With(zap.String("file", f.FullPath))
	result = model.FileResult{File: f}

	fail := func(stage model.Stage, err error) model.FileResult {
		result.Outcome = model.OutcomeFailed
		result.Stage = stage
		result.Err = err
		result.Duration = time.Since(start)
		p.metrics.RecordFailure(stage, result.Duration)
		logger.Error("Error processing file",
			zap.String("stage", string(stage)),
			zap.Error(err))
		return result
	}

	defer func() {
		if r := recover(); r != nil {
			result = fail(result.Stage, fmt.Errorf("panic: %v", r))
		}
	}()

	result.Stage = model.StageDetect
	contentType, ok := files.DetectContentType(f.FullPath)
	if !ok || !files.IsAudioContentType(contentType) {
		result.Err = apperrors.ErrUnknownContentType
		if ok {
			result.Err = apperrors.Wrapf(apperrors.ErrNotAudio, "content type %s", contentType)
		}
		logger.Warn("Skipping non-audio file", zap.String("content_type", contentType), zap.Error(result.Err))
		result.Outcome = model.OutcomeSkipped
		result.Duration = time.Since(start)
		p.metrics.RecordSkipped()
		return result
	}

	result.Stage = model.StageUpload
	logger.Info("Uploading", zap.String("mime_type", contentType))
	assets, err := p.service.Upload(ctx, f.FullPath, contentType)
	if err != nil {
		return fail(model.StageUpload, apperrors.WithKind(apperrors.ErrUploadFailed, err))
	}
	if len(assets) == 0 {
		return fail(model.StageUpload, apperrors.WithKind(apperrors.ErrUploadFailed, fmt.Errorf("no asset handles returned")))
	}

	result.Stage = model.StagePoll
	assets, err = p.poller.WaitForAssets(ctx, assets)
	if err != nil {
		return fail(model.StagePoll, err)
	}

	result.Stage = model.StageRequest
	text, err := p.service.Converse(ctx, assets, p.config.Prompts.User)
	if err != nil {
		return fail(model.StageRequest, apperrors.WithKind(apperrors.ErrRequestFailed, err))
	}

	result.Stage = model.StageParse
	formatted, err := FormatJSON([]byte(text))
	if err != nil {
		return fail(model.StageParse, err)
	}

	result.Stage = model.StageWrite
	if err := files.WriteFileAtomic(outputPath, formatted, 0o644); err != nil {
		return fail(model.StageWrite, apperrors.WithKind(apperrors.ErrFileWriteFailed, err))
	}

	result.Outcome = model.OutcomeSuccess
	result.Stage = ""
	result.Output = &model.OutputRecord{
		SourcePath: f.FullPath,
		OutputPath: outputPath,
		Bytes:      len(formatted),
	}
	result.Duration = time.Since(start)
	p.metrics.RecordSuccess(result.Duration)
	logger.Info("Saved transcription", zap.String("output", outputPath))

	return result
}

func fileNames(group []model.AudioFile) []string {
	return lo.Map(group, func(f model.AudioFile, _ int) string { return f.Name })
}
