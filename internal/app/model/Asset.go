package model

// AssetState is the processing state of an uploaded asset on the remote side.
type AssetState string

const (
	AssetStatePending AssetState = "PENDING"
	AssetStateActive  AssetState = "ACTIVE"
	AssetStateFailed  AssetState = "FAILED"
)

// Asset is a handle to an uploaded file owned by the remote service.
// Only assets in AssetStateActive may be referenced in a conversation.
type Asset struct {
	Name     string
	URI      string
	MIMEType string
	State    AssetState
	// Error holds the remote failure message when State is AssetStateFailed.
	Error string
}

func (a Asset) IsReady() bool {
	return a.State == AssetStateActive
}

func (a Asset) IsFailed() bool {
	return a.State == AssetStateFailed
}
