package live

import (
	"encoding/json"
	"fmt"

	"github.com/futig/interview-emotion/internal/entity"
	"github.com/futig/interview-emotion/internal/integration/media"
)

// Commands sent to the live client on top of the session events
const (
	CommandFlush              entity.SessionEventType = "flush"
	CommandTranscriptionStart entity.SessionEventType = "transcriptionStart"
	CommandTranscriptionStop  entity.SessionEventType = "transcriptionStop"
	CommandRelease            entity.SessionEventType = "release"
)

// ControlType is the type of a JSON frame sent by the live client
type ControlType string

const (
	ControlHello      ControlType = "hello"      // capture acquired, lists capabilities
	ControlDenied     ControlType = "denied"     // the user refused camera or microphone
	ControlTranscript ControlType = "transcript" // a speech recognition result
	ControlFlushed    ControlType = "flushed"    // every chunk requested by a flush was sent
)

// ControlFrame is a client to server text frame
type ControlFrame struct {
	Type ControlType `json:"type"`

	// hello
	Video  bool `json:"video,omitempty"`
	Audio  bool `json:"audio,omitempty"`
	Speech bool `json:"speech,omitempty"`

	// denied
	Reason string `json:"reason,omitempty"`

	// transcript
	Text  string `json:"text,omitempty"`
	Final bool   `json:"final,omitempty"`

	// flushed
	FlushID string `json:"flush_id,omitempty"`
}

func ParseControl(data []byte) (*ControlFrame, error) {
	var f ControlFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: control frame: %v", entity.ErrInvalidFormat, err)
	}
	switch f.Type {
	case ControlHello, ControlDenied, ControlTranscript, ControlFlushed:
		return &f, nil
	default:
		return nil, fmt.Errorf("%w: unknown control frame type %q", entity.ErrInvalidFormat, f.Type)
	}
}

// Binary frames carry one encoded chunk prefixed by the tag of its feed
const (
	tagCombined byte = 0x01
	tagAudio    byte = 0x02
)

func EncodeMedia(feed media.Feed, chunk []byte) []byte {
	tag := tagCombined
	if feed == media.FeedAudio {
		tag = tagAudio
	}
	return append([]byte{tag}, chunk...)
}

func DecodeMedia(frame []byte) (media.Feed, []byte, error) {
	if len(frame) < 2 {
		return "", nil, fmt.Errorf("%w: media frame too short", entity.ErrInvalidFormat)
	}
	switch frame[0] {
	case tagCombined:
		return media.FeedCombined, frame[1:], nil
	case tagAudio:
		return media.FeedAudio, frame[1:], nil
	default:
		return "", nil, fmt.Errorf("%w: unknown media tag 0x%02x", entity.ErrInvalidFormat, frame[0])
	}
}

type FlushData struct {
	Feed    media.Feed `json:"feed"`
	FlushID string     `json:"flush_id"`
}

type TranscriptionData struct {
	Language       string `json:"language"`
	InterimResults bool   `json:"interim_results"`
	Continuous     bool   `json:"continuous"`
}
