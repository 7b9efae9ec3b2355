package testutil

import (
	"context"
	"path/filepath"

	"github.com/stretchr/testify/mock"

	"audio2json/internal/app/model"
)

// MockRemoteService is a testify mock of api.RemoteService.
type MockRemoteService struct {
	mock.Mock
}

func NewMockRemoteService() *MockRemoteService {
	return &MockRemoteService{}
}

func (m *MockRemoteService) Upload(ctx context.Context, path string, mimeType string) ([]model.Asset, error) {
	args := m.Called(ctx, path, mimeType)
	assets, _ := args.Get(0).([]model.Asset)
	return assets, args.Error(1)
}

func (m *MockRemoteService) GetAsset(ctx context.Context, name string) (model.Asset, error) {
	args := m.Called(ctx, name)
	asset, _ := args.Get(0).(model.Asset)
	return asset, args.Error(1)
}

func (m *MockRemoteService) Converse(ctx context.Context, assets []model.Asset, prompt string) (string, error) {
	args := m.Called(ctx, assets, prompt)
	return args.String(0), args.Error(1)
}

// AssetFor builds the handle the mock hands out for a file name.
func AssetFor(fileName string, state model.AssetState) model.Asset {
	return model.Asset{
		Name:     "files/" + fileName,
		URI:      "https://files.example/" + fileName,
		MIMEType: "audio/wav",
		State:    state,
	}
}

func matchBase(fileName string) interface{} {
	return mock.MatchedBy(func(path string) bool { return filepath.Base(path) == fileName })
}

func matchAssets(fileName string) interface{} {
	return mock.MatchedBy(func(assets []model.Asset) bool {
		return len(assets) == 1 && assets[0].Name == "files/"+fileName
	})
}

// ExpectTranscription sets up an upload that is immediately active and a
// conversation answering reply.
func (m *MockRemoteService) ExpectTranscription(fileName string, reply string) *MockRemoteService {
	m.On("Upload", mock.Anything, matchBase(fileName), mock.Anything).
		Return([]model.Asset{AssetFor(fileName, model.AssetStateActive)}, nil).Once()
	m.On("Converse", mock.Anything, matchAssets(fileName), mock.Anything).
		Return(reply, nil).Once()
	return m
}

// ExpectUploadFailure makes the upload of fileName fail with err.
func (m *MockRemoteService) ExpectUploadFailure(fileName string, err error) *MockRemoteService {
	m.On("Upload", mock.Anything, matchBase(fileName), mock.Anything).
		Return(nil, err).Once()
	return m
}

// ExpectProcessing sets up an upload that stays pending for pendingPolls
// GetAsset calls and then reports final.
func (m *MockRemoteService) ExpectProcessing(fileName string, pendingPolls int, final model.AssetState) *MockRemoteService {
	m.On("Upload", mock.Anything, matchBase(fileName), mock.Anything).
		Return([]model.Asset{AssetFor(fileName, model.AssetStatePending)}, nil).Once()
	if pendingPolls > 0 {
		m.On("GetAsset", mock.Anything, "files/"+fileName).
			Return(AssetFor(fileName, model.AssetStatePending), nil).Times(pendingPolls)
	}
	done := AssetFor(fileName, final)
	if final == model.AssetStateFailed {
		done.Error = "unsupported audio encoding"
	}
	m.On("GetAsset", mock.Anything, "files/"+fileName).Return(done, nil).Once()
	return m
}

// ExpectConverse answers the conversation for fileName with reply and err.
func (m *MockRemoteService) ExpectConverse(fileName string, reply string, err error) *MockRemoteService {
	m.On("Converse", mock.Anything, matchAssets(fileName), mock.Anything).
		Return(reply, err).Once()
	return m
}
