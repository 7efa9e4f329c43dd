package entity

// SessionEventType represents the type of event published by a session
type SessionEventType string

const (
	EventCountdown        SessionEventType = "countdown"
	EventRecordingStarted SessionEventType = "recordingStarted"
	EventTimer            SessionEventType = "timer"
	EventTranscript       SessionEventType = "transcript"
	EventMessage          SessionEventType = "message"
	EventFinalizing       SessionEventType = "finalizing"
	EventQuestionFinished SessionEventType = "questionFinished"
	EventSessionFinished  SessionEventType = "sessionFinished"
	EventPageSelected     SessionEventType = "pageSelected"
	EventTrackChanged     SessionEventType = "trackChanged"
	EventAlert            SessionEventType = "alert"
	EventError            SessionEventType = "error"
)

// SessionEvent is pushed to live clients and, for terminal events, to the session callback URL
type SessionEvent struct {
	Event     SessionEventType `json:"event"`
	SessionID string           `json:"session_id"`
	Timestamp string           `json:"timestamp"` // ISO-8601 UTC
	Data      any              `json:"data,omitempty"`
}

type CountdownData struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

type TimerData struct {
	Elapsed int    `json:"elapsed"`
	Display string `json:"display"`
}

type TranscriptData struct {
	QuestionIndex int    `json:"question_index"`
	Text          string `json:"text"`
}

type MessageData struct {
	QuestionIndex int     `json:"question_index"`
	Message       Message `json:"message"`
}

type QuestionFinishedData struct {
	QuestionIndex int           `json:"question_index"`
	Emotions      Probabilities `json:"emotions,omitempty"`
	NextIndex     *int          `json:"next_index,omitempty"`
}

type PageSelectedData struct {
	Page int `json:"page"`
}

type TrackChangedData struct {
	Kind    string `json:"kind"`
	Enabled bool   `json:"enabled"`
}

// AlertData is a user-visible notice (capture denied, speech unsupported)
type AlertData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorData represents data for error event
type ErrorData struct {
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
