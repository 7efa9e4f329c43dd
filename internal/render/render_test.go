package render

import (
	"encoding/json"
	"testing"

	"github.com/futig/interview-emotion/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageWithEmotions(t *testing.T) {
	log := &entity.QuestionLog{
		Index:    0,
		Question: "Introduce yourself.",
		Messages: []entity.Message{
			{Speaker: entity.SpeakerYou, Text: "hello"},
			{Speaker: entity.SpeakerSystem, Text: "Q1 finished"},
		},
		Emotions: entity.Probabilities{
			{Label: "happy", Probability: 0.55},
			{Label: "neutral", Probability: 0.30},
			{Label: "sad", Probability: 0.15},
		},
	}

	view := Page(log)

	assert.Equal(t, "Introduce yourself.", view.Question)
	require.Len(t, view.Messages, 2)
	assert.Equal(t, youBackground, view.Messages[0].Background)
	assert.Equal(t, systemBackground, view.Messages[1].Background)

	require.NotNil(t, view.Emotions)
	assert.Equal(t, []Segment{
		{Label: "happy", Percent: 55, Color: "#55efc4"},
		{Label: "neutral", Percent: 30, Color: "#74b9ff"},
		{Label: "sad", Percent: 15, Color: "#ffeaa7"},
	}, view.Emotions.Segments)

	var legend []string
	for _, e := range view.Emotions.Legend {
		legend = append(legend, e.Text)
	}
	assert.Equal(t, []string{"happy — 55%", "neutral — 30%", "sad — 15%"}, legend)
}

func TestPageWithoutEmotions(t *testing.T) {
	view := Page(&entity.QuestionLog{Question: "q", Messages: []entity.Message{}})
	assert.Nil(t, view.Emotions)
	assert.Empty(t, view.Messages)
	assert.NotNil(t, view.Messages)
}

func TestSummaryOmitsZeroSegmentsButKeepsLegend(t *testing.T) {
	s := Summary(entity.Probabilities{
		{Label: "angry", Probability: 0.004},
		{Label: "mystery", Probability: 0.996},
	})

	assert.Equal(t, []Segment{{Label: "mystery", Percent: 100, Color: UnknownColor}}, s.Segments)
	require.Len(t, s.Legend, 2)
	assert.Equal(t, "angry — 0%", s.Legend[0].Text)
	assert.Equal(t, "#ff7675", s.Legend[0].Color)
	assert.Equal(t, "mystery — 100%", s.Legend[1].Text)
}

func TestPercentRoundsHalfUp(t *testing.T) {
	assert.Equal(t, 0, Percent(0))
	assert.Equal(t, 1, Percent(0.005))
	assert.Equal(t, 13, Percent(0.125))
	assert.Equal(t, 55, Percent(0.55))
	assert.Equal(t, 100, Percent(1))
}

func TestColorPalette(t *testing.T) {
	for label, want := range map[string]string{
		"angry": "#ff7675", "disgust": "#6c5ce7", "fearful": "#a29bfe", "happy": "#55efc4",
		"neutral": "#74b9ff", "sad": "#ffeaa7", "surprised": "#fd79a8", "Happy": UnknownColor,
	} {
		assert.Equal(t, want, Color(label), label)
	}
}

func TestReportRendersAllPages(t *testing.T) {
	errMsg := "upload failed"
	snap := &entity.SessionSnapshot{
		ID:       "s-1",
		Finished: true,
		Questions: []*entity.QuestionLog{
			{Index: 0, Question: "a"},
			{Index: 1, Question: "b", UploadError: &errMsg},
		},
	}

	r := Report(snap)
	assert.Equal(t, "s-1", r.SessionID)
	assert.True(t, r.Finished)
	require.Len(t, r.Pages, 2)
	assert.Equal(t, "b", r.Pages[1].Question)
	assert.Nil(t, r.Pages[1].Emotions)

	out, err := json.Marshal(r.Pages[1])
	require.NoError(t, err)
	assert.NotContains(t, string(out), errMsg)
}
