package entity

import (
	"fmt"
	"time"
)

type Speaker string

const (
	SpeakerYou    Speaker = "You"
	SpeakerSystem Speaker = "System"
)

// Message is one entry of a question's conversation log
type Message struct {
	Speaker Speaker `json:"from"`
	Text    string  `json:"text"`
}

// QuestionLog is the per-question record of conversation and emotion results
type QuestionLog struct {
	Index       int           `json:"index"`
	Question    string        `json:"question"`
	Messages    []Message     `json:"messages"`
	Emotions    Probabilities `json:"emotions,omitempty"`
	AnswerText  *string       `json:"answer_text,omitempty"`
	UploadError *string       `json:"-"` // diagnostic only, never shown to the user
}

// Answered reports whether the prediction result for the question has been stored
func (l *QuestionLog) Answered() bool {
	return l.Emotions != nil
}

// Clone returns a deep copy safe to hand out to readers
func (l *QuestionLog) Clone() *QuestionLog {
	out := *l
	out.Messages = make([]Message, len(l.Messages))
	copy(out.Messages, l.Messages)
	if l.Emotions != nil {
		out.Emotions = append(Probabilities{}, l.Emotions...)
	}
	if l.AnswerText != nil {
		s := *l.AnswerText
		out.AnswerText = &s
	}
	if l.UploadError != nil {
		s := *l.UploadError
		out.UploadError = &s
	}
	return &out
}

// Phase is the recording cycle state of a session
type Phase string

// Recording cycle phases
const (
	PhaseIdle       Phase = "IDLE"       // Waiting for Start on the current question
	PhaseCountdown  Phase = "COUNTDOWN"  // 3..0 countdown before capture begins
	PhaseRecording  Phase = "RECORDING"  // Recorders and transcription are running
	PhaseFinalizing Phase = "FINALIZING" // Recorders stopped, blobs joined, upload in flight
	PhaseDone       Phase = "DONE"       // All questions answered
)

func (p Phase) Validate() error {
	switch p {
	case PhaseIdle, PhaseCountdown, PhaseRecording, PhaseFinalizing, PhaseDone:
		return nil
	default:
		return fmt.Errorf("unknown phase: %s", p)
	}
}

// Recording is true from the moment capture starts until the cycle, including upload, resolves
func (p Phase) Recording() bool {
	return p == PhaseRecording || p == PhaseFinalizing
}

// SessionState is the session-scoped UI state owned by the controller
type SessionState struct {
	Phase        Phase `json:"phase"`
	QIndex       int   `json:"q_index"`
	SelectedPage int   `json:"selected_page"`
	CamOn        bool  `json:"cam_on"`
	MicOn        bool  `json:"mic_on"`
	Elapsed      int   `json:"elapsed"`
	Countdown    *int  `json:"countdown,omitempty"`
	CaptureReady bool  `json:"capture_ready"`
}

func (s SessionState) Recording() bool { return s.Phase.Recording() }

func (s SessionState) Finished() bool { return s.Phase == PhaseDone }

// Controls is the enabled/disabled projection of the session buttons
type Controls struct {
	StartEnabled bool   `json:"start_enabled"`
	EndEnabled   bool   `json:"end_enabled"`
	CameraLabel  string `json:"camera_label"`
	MicLabel     string `json:"mic_label"`
}

// SessionSnapshot is a consistent read-only copy of a session
type SessionSnapshot struct {
	ID           string         `json:"session_id"`
	State        SessionState   `json:"state"`
	Recording    bool           `json:"recording"`
	Finished     bool           `json:"finished"`
	Controls     Controls       `json:"controls"`
	Timer        string         `json:"timer,omitempty"`
	CountdownTxt string         `json:"countdown_text,omitempty"`
	Questions    []*QuestionLog `json:"questions"`
	CreatedAt    time.Time      `json:"created_at"`
}
