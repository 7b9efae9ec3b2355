package model

import "time"

// AudioFile is a file found during discovery whose extension maps to an audio/* content type.
type AudioFile struct {
	FullPath string
	Name     string
	MIMEType string
	ModTime  time.Time
}
