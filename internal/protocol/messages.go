package protocol

import "time"

// TurnStarted announces that a practice turn entered the pipeline.
type TurnStarted struct {
	SessionID string    `json:"session_id"`
	Turn      int       `json:"turn"`
	Timestamp time.Time `json:"timestamp"`
}

// TurnTranscript carries the plain transcription of a turn's recording.
type TurnTranscript struct {
	SessionID string    `json:"session_id"`
	Turn      int       `json:"turn"`
	Text      string    `json:"text"`
	Words     int       `json:"words"`
	Timestamp time.Time `json:"timestamp"`
}

// TurnScore summarizes the pronunciation comparison for a turn.
type TurnScore struct {
	SessionID  string    `json:"session_id"`
	Turn       int       `json:"turn"`
	Mode       string    `json:"mode"`
	Compared   int       `json:"compared"`
	Mismatches int       `json:"mismatches"`
	Perfect    bool      `json:"perfect"`
	Timestamp  time.Time `json:"timestamp"`
}

// TurnSegmented reports the per-word export outcome for a turn.
type TurnSegmented struct {
	SessionID string    `json:"session_id"`
	Turn      int       `json:"turn"`
	Exported  int       `json:"exported"`
	Skipped   int       `json:"skipped"`
	OutputDir string    `json:"output_dir"`
	Timestamp time.Time `json:"timestamp"`
}

// TurnReport is the terminal event of a turn, persisted by the journal.
// It carries derived results only, never the conversation text itself.
type TurnReport struct {
	SessionID     string    `json:"session_id"`
	Turn          int       `json:"turn"`
	State         string    `json:"state"`
	ScoreMode     string    `json:"score_mode"`
	Mismatches    int       `json:"mismatches"`
	Perfect       bool      `json:"perfect"`
	WordsExported int       `json:"words_exported"`
	WordsSkipped  int       `json:"words_skipped"`
	DurationSec   float64   `json:"duration_sec"`
	Timestamp     time.Time `json:"timestamp"`
}

const (
	SubjectTurnStarted    = "practice.turn.started"
	SubjectTurnTranscript = "practice.turn.transcript"
	SubjectTurnScore      = "practice.turn.score"
	SubjectTurnSegmented  = "practice.turn.segmented"
	SubjectTurnReport     = "practice.turn.report"
)
