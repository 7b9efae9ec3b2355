// Package testutil provides test doubles and fixtures for the audio2json packages.
//
//   - MockRemoteService (mock_service.go): testify mock of api.RemoteService with
//     helpers for the common upload → poll → converse sequences.
//   - Fixtures (fixtures.go): audio directory builders and canned model replies.
//
// # Usage
//
//	svc := testutil.NewMockRemoteService()
//	svc.ExpectTranscription("call1.wav", `{"text": "hello"}`)
//	svc.ExpectUploadFailure("call2.mp3", errors.New("quota exceeded"))
package testutil
