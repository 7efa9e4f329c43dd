package render

import (
	"fmt"
	"math"
	"time"

	"github.com/futig/interview-emotion/internal/entity"
)

const (
	UnknownColor = "#ccc"

	questionBackground = "#fff3c4"
	youBackground      = "#d9fdd3"
	systemBackground   = "#fff"
)

var palette = map[string]string{
	"angry":     "#ff7675",
	"disgust":   "#6c5ce7",
	"fearful":   "#a29bfe",
	"happy":     "#55efc4",
	"neutral":   "#74b9ff",
	"sad":       "#ffeaa7",
	"surprised": "#fd79a8",
}

// Color returns the display color of an emotion label
func Color(label string) string {
	if c, ok := palette[label]; ok {
		return c
	}
	return UnknownColor
}

// Percent rounds a probability to a whole percent, halves rounding up
func Percent(p float64) int {
	return int(math.Floor(p*100 + 0.5))
}

type Bubble struct {
	Speaker    entity.Speaker `json:"from"`
	Text       string         `json:"text"`
	Background string         `json:"background"`
}

// Segment is one slice of the stacked emotion bar
type Segment struct {
	Label   string `json:"label"`
	Percent int    `json:"percent"`
	Color   string `json:"color"`
}

type LegendEntry struct {
	Label   string `json:"label"`
	Percent int    `json:"percent"`
	Color   string `json:"color"`
	Text    string `json:"text"`
}

type EmotionSummary struct {
	Segments []Segment     `json:"segments"`
	Legend   []LegendEntry `json:"legend"`
}

type PageView struct {
	Index              int             `json:"index"`
	Question           string          `json:"question"`
	QuestionBackground string          `json:"question_background"`
	Messages           []Bubble        `json:"messages"`
	Emotions           *EmotionSummary `json:"emotions,omitempty"`
}

type ReportView struct {
	SessionID   string     `json:"session_id"`
	Finished    bool       `json:"finished"`
	CreatedAt   time.Time  `json:"created_at"`
	GeneratedAt time.Time  `json:"generated_at"`
	Pages       []PageView `json:"pages"`
}

// Page projects one question log into its display form
func Page(log *entity.QuestionLog) *PageView {
	view := &PageView{
		Index:              log.Index,
		Question:           log.Question,
		QuestionBackground: questionBackground,
		Messages:           make([]Bubble, 0, len(log.Messages)),
	}

	for _, m := range log.Messages {
		bg := systemBackground
		if m.Speaker == entity.SpeakerYou {
			bg = youBackground
		}
		view.Messages = append(view.Messages, Bubble{Speaker: m.Speaker, Text: m.Text, Background: bg})
	}

	if log.Emotions != nil {
		view.Emotions = Summary(log.Emotions)
	}
	return view
}

// Summary builds the bar and legend of a prediction in its stored order.
// Entries rounding to 0% stay in the legend but get no bar segment.
func Summary(probs entity.Probabilities) *EmotionSummary {
	s := &EmotionSummary{
		Segments: []Segment{},
		Legend:   make([]LegendEntry, 0, len(probs)),
	}
	for _, p := range probs {
		pct := Percent(p.Probability)
		color := Color(p.Label)
		if pct > 0 {
			s.Segments = append(s.Segments, Segment{Label: p.Label, Percent: pct, Color: color})
		}
		s.Legend = append(s.Legend, LegendEntry{
			Label:   p.Label,
			Percent: pct,
			Color:   color,
			Text:    fmt.Sprintf("%s — %d%%", p.Label, pct),
		})
	}
	return s
}

// Report renders every page of a session snapshot
func Report(snap *entity.SessionSnapshot) *ReportView {
	r := &ReportView{
		SessionID:   snap.ID,
		Finished:    snap.Finished,
		CreatedAt:   snap.CreatedAt,
		GeneratedAt: time.Now().UTC(),
		Pages:       make([]PageView, 0, len(snap.Questions)),
	}
	for _, q := range snap.Questions {
		r.Pages = append(r.Pages, *Page(q))
	}
	return r
}
