package interview

import (
	"testing"

	"github.com/futig/interview-emotion/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreAppendMessageDeduplicates(t *testing.T) {
	s := newQuestionStore([]string{"q1", "q2"})

	assert.True(t, s.appendMessage(0, entity.SpeakerYou, "hello"))
	assert.False(t, s.appendMessage(0, entity.SpeakerYou, "hello"))
	assert.False(t, s.appendMessage(0, entity.SpeakerSystem, "hello"))
	assert.False(t, s.appendMessage(0, entity.SpeakerYou, ""))
	assert.True(t, s.appendMessage(0, entity.SpeakerSystem, "Q1 finished"))
	assert.True(t, s.appendMessage(1, entity.SpeakerYou, "hello"))

	l, err := s.get(0)
	require.NoError(t, err)
	assert.Len(t, l.Messages, 2)
}

func TestStoreAnswerTextJoinsCandidateMessages(t *testing.T) {
	s := newQuestionStore([]string{"q1"})
	s.appendMessage(0, entity.SpeakerYou, "first part")
	s.appendMessage(0, entity.SpeakerSystem, "noise")
	s.appendMessage(0, entity.SpeakerYou, "second part")

	assert.Equal(t, "first part second part", s.answerText(0))
	assert.Equal(t, "", s.answerText(5))
}

func TestStoreEmotionsAreWriteOnce(t *testing.T) {
	s := newQuestionStore([]string{"q1"})
	first := entity.Probabilities{{Label: "happy", Probability: 0.9}}

	require.NoError(t, s.setEmotions(0, first))
	err := s.setEmotions(0, entity.Probabilities{{Label: "sad", Probability: 0.9}})
	assert.ErrorIs(t, err, entity.ErrEmotionsSet)

	l, _ := s.get(0)
	assert.Equal(t, first, l.Emotions)
}

func TestStoreMutationsDoNotLeakIntoSnapshots(t *testing.T) {
	s := newQuestionStore([]string{"q1"})
	s.appendMessage(0, entity.SpeakerYou, "one")

	snap := s.snapshot()
	held, _ := s.get(0)

	s.appendMessage(0, entity.SpeakerYou, "two")
	s.setUploadError(0, "boom")

	assert.Len(t, snap[0].Messages, 1)
	assert.Len(t, held.Messages, 1)
	assert.Nil(t, held.UploadError)

	cur, _ := s.get(0)
	assert.Len(t, cur.Messages, 2)
	require.NotNil(t, cur.UploadError)
	assert.Equal(t, "boom", *cur.UploadError)
}

func TestStoreRejectsUnknownIndex(t *testing.T) {
	s := newQuestionStore([]string{"q1"})
	_, err := s.get(1)
	assert.ErrorIs(t, err, entity.ErrInvalidPage)
	assert.False(t, s.appendMessage(3, entity.SpeakerYou, "x"))
	assert.ErrorIs(t, s.setEmotions(-1, nil), entity.ErrInvalidPage)
}
