package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	appconfig "audio2json/internal/app/config"
	apperrors "audio2json/internal/app/errors"
	"audio2json/internal/app/model"
	tu "audio2json/internal/app/testutil"
	"audio2json/internal/app/util/files"
	envconfig "audio2json/internal/config"
)

func testConfig(t *testing.T) *appconfig.TranscribeConfig {
	t.Helper()
	cfg := appconfig.DefaultConfig()
	cfg.OutputDir = filepath.Join(t.TempDir(), "TextOutput")
	cfg.Polling = appconfig.PollingConfig{
		Interval:    time.Millisecond,
		MaxInterval: 2 * time.Millisecond,
		Multiplier:  2,
		Timeout:     time.Second,
	}
	return cfg
}

func newTestPipeline(t *testing.T, svc *tu.MockRemoteService, cfg *appconfig.TranscribeConfig) (*Pipeline, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	p := NewPipeline(svc, cfg, zap.New(core), nil, ProgressConfig{Enabled: false})
	t.Cleanup(func() { p.Close() })
	return p, logs
}

func discover(t *testing.T, dir string) []model.AudioFile {
	t.Helper()
	audioFiles, err := files.DiscoverAudioFiles(dir, zap.NewNop())
	require.NoError(t, err)
	return audioFiles
}

func TestPipeline_EndToEnd(t *testing.T) {
	dir := tu.CreateAudioDir(t, "call1.wav", "notes.txt", "call2.mp3")
	audioFiles := discover(t, dir)
	require.Equal(t, []string{"call1.wav", "call2.mp3"}, lo.Map(audioFiles, func(f model.AudioFile, _ int) string { return f.Name }))

	svc := tu.NewMockRemoteService().
		ExpectTranscription("call1.wav", tu.ReplyHello).
		ExpectProcessing("call2.mp3", 0, model.AssetStateFailed)
	cfg := testConfig(t)
	p, logs := newTestPipeline(t, svc, cfg)

	summary, err := p.Run(context.Background(), audioFiles)
	require.NoError(t, err)

	assert.Equal(t, tu.HelloIndented, tu.ReadOutput(t, filepath.Join(cfg.OutputDir, "call1.json")))
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir, "call2.json"))

	errorLogs := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	require.Len(t, errorLogs, 1)
	assert.Contains(t, errorLogs[0].ContextMap()["file"], "call2.mp3")

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, model.StagePoll, summary.Results[1].Stage)
	assert.ErrorIs(t, summary.Results[1].Err, apperrors.ErrProcessingFailed)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "call1.json"), summary.Results[0].Output.OutputPath)
	svc.AssertExpectations(t)
}

func TestPipeline_PerFileFailuresDoNotAbortBatch(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(svc *tu.MockRemoteService)
		wantStage model.Stage
		wantKind  *apperrors.Error
	}{
		{
			name: "upload error",
			setup: func(svc *tu.MockRemoteService) {
				svc.ExpectUploadFailure("bad.wav", errors.New("connection reset by peer"))
			},
			wantStage: model.StageUpload,
			wantKind:  apperrors.ErrUploadFailed,
		},
		{
			name: "remote processing failed after polling",
			setup: func(svc *tu.MockRemoteService) {
				svc.ExpectProcessing("bad.wav", 2, model.AssetStateFailed)
			},
			wantStage: model.StagePoll,
			wantKind:  apperrors.ErrProcessingFailed,
		},
		{
			name: "generation request error",
			setup: func(svc *tu.MockRemoteService) {
				svc.ExpectProcessing("bad.wav", 1, model.AssetStateActive).
					ExpectConverse("bad.wav", "", errors.New("429 resource exhausted"))
			},
			wantStage: model.StageRequest,
			wantKind:  apperrors.ErrRequestFailed,
		},
		{
			name: "malformed JSON reply",
			setup: func(svc *tu.MockRemoteService) {
				svc.ExpectTranscription("bad.wav", tu.ReplyMalformed)
			},
			wantStage: model.StageParse,
			wantKind:  apperrors.ErrParseFailed,
		},
		{
			name: "empty upload response",
			setup: func(svc *tu.MockRemoteService) {
				svc.On("Upload", mock.Anything, mock.Anything, "audio/wav").Return([]model.Asset{}, nil).Once()
			},
			wantStage: model.StageUpload,
			wantKind:  apperrors.ErrUploadFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := tu.CreateAudioDir(t, "bad.wav", "good.mp3")
			svc := tu.NewMockRemoteService()
			tt.setup(svc)
			svc.ExpectTranscription("good.mp3", tu.ReplyDialogue)
			cfg := testConfig(t)
			p, logs := newTestPipeline(t, svc, cfg)

			summary, err := p.Run(context.Background(), discover(t, dir))
			require.NoError(t, err)

			assert.NoFileExists(t, filepath.Join(cfg.OutputDir, "bad.json"))
			assert.FileExists(t, filepath.Join(cfg.OutputDir, "good.json"))

			require.Len(t, summary.Results, 2)
			bad := summary.Results[0]
			assert.Equal(t, model.OutcomeFailed, bad.Outcome)
			assert.Equal(t, tt.wantStage, bad.Stage)
			assert.ErrorIs(t, bad.Err, tt.wantKind)
			assert.Equal(t, model.OutcomeSuccess, summary.Results[1].Outcome)

			errorLogs := logs.FilterLevelExact(zapcore.ErrorLevel).All()
			require.Len(t, errorLogs, 1)
			assert.Contains(t, errorLogs[0].ContextMap()["file"], "bad.wav")

			entries, err := os.ReadDir(cfg.OutputDir)
			require.NoError(t, err)
			assert.Len(t, entries, 1, "no partial or temporary output may remain")
			svc.AssertExpectations(t)
		})
	}
}

func TestPipeline_PollTimeoutIsDistinctFromFailure(t *testing.T) {
	dir := tu.CreateAudioDir(t, "slow.wav")
	svc := tu.NewMockRemoteService()
	svc.On("Upload", mock.Anything, mock.Anything, "audio/wav").
		Return([]model.Asset{tu.AssetFor("slow.wav", model.AssetStatePending)}, nil).Once()
	svc.On("GetAsset", mock.Anything, "files/slow.wav").
		Return(tu.AssetFor("slow.wav", model.AssetStatePending), nil)
	cfg := testConfig(t)
	cfg.Polling.Timeout = 20 * time.Millisecond
	p, _ := newTestPipeline(t, svc, cfg)

	summary, err := p.Run(context.Background(), discover(t, dir))
	require.NoError(t, err)

	result := summary.Results[0]
	assert.ErrorIs(t, result.Err, apperrors.ErrPollTimeout)
	assert.NotErrorIs(t, result.Err, apperrors.ErrProcessingFailed)
	svc.AssertNotCalled(t, "Converse", mock.Anything, mock.Anything, mock.Anything)
}

func TestPipeline_Idempotent(t *testing.T) {
	dir := tu.CreateAudioDir(t, "call1.wav")
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.OutputDir, 0o755))
	outPath := filepath.Join(cfg.OutputDir, "call1.json")
	require.NoError(t, os.WriteFile(outPath, []byte("stale output from an earlier run"), 0o644))

	var outputs []string
	for i := 0; i < 2; i++ {
		svc := tu.NewMockRemoteService().ExpectTranscription("call1.wav", tu.ReplyDialogue)
		p, _ := newTestPipeline(t, svc, cfg)

		summary, err := p.Run(context.Background(), discover(t, dir))
		require.NoError(t, err)
		require.Equal(t, 1, summary.Succeeded)

		outputs = append(outputs, tu.ReadOutput(t, outPath))
	}

	assert.Equal(t, outputs[0], outputs[1])
	assert.NotContains(t, outputs[0], "stale")
}

func TestPipeline_SkipsNonAudioOnRecheck(t *testing.T) {
	dir := tu.CreateAudioDir(t, "notes.txt")
	svc := tu.NewMockRemoteService()
	cfg := testConfig(t)
	p, logs := newTestPipeline(t, svc, cfg)

	audioFiles := []model.AudioFile{{FullPath: filepath.Join(dir, "notes.txt"), Name: "notes.txt"}}
	summary, err := p.Run(context.Background(), audioFiles)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Skipped)
	assert.ErrorIs(t, summary.Results[0].Err, apperrors.ErrNotAudio)
	assert.Equal(t, 1, logs.FilterMessage("Skipping non-audio file").Len())
	svc.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestPipeline_SkipsUnknownContentTypeOnRecheck(t *testing.T) {
	dir := tu.CreateAudioDir(t, "README")
	svc := tu.NewMockRemoteService()
	p, _ := newTestPipeline(t, svc, testConfig(t))

	audioFiles := []model.AudioFile{{FullPath: filepath.Join(dir, "README"), Name: "README"}}
	summary, err := p.Run(context.Background(), audioFiles)
	require.NoError(t, err)

	require.Len(t, summary.Results, 1)
	assert.Equal(t, model.OutcomeSkipped, summary.Results[0].Outcome)
	assert.ErrorIs(t, summary.Results[0].Err, apperrors.ErrUnknownContentType)
	assert.NotErrorIs(t, summary.Results[0].Err, apperrors.ErrNotAudio)
}

func TestPipeline_EmptyInput(t *testing.T) {
	svc := tu.NewMockRemoteService()
	cfg := testConfig(t)
	p, _ := newTestPipeline(t, svc, cfg)

	summary, err := p.Run(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, summary.Results)
	assert.DirExists(t, cfg.OutputDir, "output directory is created even for an empty batch")
}

func TestPipeline_OutputDirectoryFailureIsFatal(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	svc := tu.NewMockRemoteService()
	cfg := testConfig(t)
	cfg.OutputDir = filepath.Join(blocker, "TextOutput")
	p, _ := newTestPipeline(t, svc, cfg)

	summary, err := p.Run(context.Background(), discover(t, tu.CreateAudioDir(t, "a.wav")))

	assert.Error(t, err)
	assert.Nil(t, summary)
	svc.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestPipeline_CancelledContextStopsBatch(t *testing.T) {
	dir := tu.CreateAudioDir(t, "a.wav", "b.wav")
	svc := tu.NewMockRemoteService()
	cfg := testConfig(t)
	p, _ := newTestPipeline(t, svc, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := p.Run(ctx, discover(t, dir))

	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	assert.Empty(t, summary.Results)
	svc.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestPipeline_InterruptedWithProgressBarReturns(t *testing.T) {
	dir := tu.CreateAudioDir(t, "a.wav", "b.wav")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := tu.NewMockRemoteService()
	svc.On("Upload", mock.Anything, filepath.Join(dir, "a.wav"), "audio/wav").
		Run(func(mock.Arguments) { cancel() }).
		Return(nil, context.Canceled).Once()
	cfg := testConfig(t)

	var buf bytes.Buffer
	p := NewPipeline(svc, cfg, zap.NewNop(), nil, ProgressConfig{Enabled: true, Writer: &buf})
	t.Cleanup(func() { p.Close() })

	type outcome struct {
		summary *model.Summary
		err     error
	}
	audioFiles := discover(t, dir)
	done := make(chan outcome, 1)
	go func() {
		summary, err := p.Run(ctx, audioFiles)
		done <- outcome{summary, err}
	}()

	select {
	case got := <-done:
		assert.ErrorIs(t, got.err, context.Canceled)
		require.NotNil(t, got.summary)
		assert.Len(t, got.summary.Results, 1, "the second file is never started")
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after the context was cancelled with progress enabled")
	}
	svc.AssertNumberOfCalls(t, "Upload", 1)
}

func TestPipeline_PanicIsolatedToFile(t *testing.T) {
	dir := tu.CreateAudioDir(t, "a.wav", "b.wav")
	svc := tu.NewMockRemoteService()
	svc.On("Upload", mock.Anything, filepath.Join(dir, "a.wav"), "audio/wav").
		Run(func(mock.Arguments) { panic("nil handle") }).
		Return(nil, nil).Once()
	svc.ExpectTranscription("b.wav", tu.ReplyHello)
	cfg := testConfig(t)
	p, _ := newTestPipeline(t, svc, cfg)

	summary, err := p.Run(context.Background(), discover(t, dir))
	require.NoError(t, err)

	assert.Equal(t, model.OutcomeFailed, summary.Results[0].Outcome)
	assert.Equal(t, model.StageUpload, summary.Results[0].Stage)
	assert.Contains(t, summary.Results[0].Err.Error(), "nil handle")
	assert.Equal(t, model.OutcomeSuccess, summary.Results[1].Outcome)
}

func TestPipeline_CollisionPolicies(t *testing.T) {
	tests := []struct {
		policy    string
		wantFiles []string
	}{
		{policy: envconfig.CollisionOverwrite, wantFiles: []string{"call.json"}},
		{policy: envconfig.CollisionDisambiguate, wantFiles: []string{"call.mp3.json", "call.wav.json"}},
	}

	for _, tt := range tests {
		t.Run(tt.policy, func(t *testing.T) {
			dir := tu.CreateAudioDir(t, "call.wav", "call.mp3")
			svc := tu.NewMockRemoteService().
				ExpectTranscription("call.mp3", `{"from": "mp3"}`).
				ExpectTranscription("call.wav", `{"from": "wav"}`)
			cfg := testConfig(t)
			cfg.Output.Collision = tt.policy
			p, logs := newTestPipeline(t, svc, cfg)

			_, err := p.Run(context.Background(), discover(t, dir))
			require.NoError(t, err)

			entries, err := os.ReadDir(cfg.OutputDir)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFiles, lo.Map(entries, func(e os.DirEntry, _ int) string { return e.Name() }))
			assert.Equal(t, 1, logs.FilterMessage("Input files share an output name").Len())
		})
	}
}

func TestPipeline_Metrics(t *testing.T) {
	dir := tu.CreateAudioDir(t, "a.wav", "b.wav", "c.wav")
	svc := tu.NewMockRemoteService().
		ExpectTranscription("a.wav", tu.ReplyHello).
		ExpectTranscription("b.wav", "not json").
		ExpectUploadFailure("c.wav", errors.New("boom"))
	cfg := testConfig(t)
	p, _ := newTestPipeline(t, svc, cfg)

	_, err := p.Run(context.Background(), discover(t, dir))
	require.NoError(t, err)

	problems, err := testutil.GatherAndLint(p.Metrics().Registry())
	require.NoError(t, err)
	assert.Empty(t, problems)

	path := filepath.Join(t.TempDir(), "a2j.prom")
	require.NoError(t, p.Metrics().WriteTextfile(path))
	content := tu.ReadOutput(t, path)
	assert.Contains(t, content, `a2j_files_total{outcome="success"} 1`)
	assert.Contains(t, content, `a2j_files_total{outcome="failed"} 2`)
	assert.Contains(t, content, `a2j_failures_total{stage="parse"} 1`)
	assert.Contains(t, content, `a2j_failures_total{stage="upload"} 1`)
}
