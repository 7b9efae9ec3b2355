package model

import "time"

// Outcome of processing a single audio file.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Stage names the pipeline step a file failed in.
type Stage string

const (
	StageDetect  Stage = "detect"
	StageUpload  Stage = "upload"
	StagePoll    Stage = "poll"
	StageRequest Stage = "request"
	StageParse   Stage = "parse"
	StageWrite   Stage = "write"
)

// TranscriptionResult is the JSON document returned by the model, kept as raw
// bytes so key order survives re-indentation.
type TranscriptionResult []byte

// OutputRecord describes a transcription persisted to disk.
type OutputRecord struct {
	SourcePath string
	OutputPath string
	Bytes      int
}

// FileResult is the outcome of one pipeline iteration.
type FileResult struct {
	File     AudioFile
	Outcome  Outcome
	Stage    Stage
	Err      error
	Output   *OutputRecord
	Duration time.Duration
}

// Summary aggregates the results of a batch run.
type Summary struct {
	RunID     string
	Results   []FileResult
	Succeeded int
	Skipped   int
	Failed    int
}

func (s *Summary) Add(r FileResult) {
	s.Results = append(s.Results, r)
	switch r.Outcome {
	case OutcomeSuccess:
		s.Succeeded++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
	}
}
