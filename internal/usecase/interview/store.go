package interview

import (
	"fmt"
	"strings"

	"github.com/futig/interview-emotion/internal/entity"
)

// questionStore holds one log per question. Every mutation replaces the
// log with a modified copy so snapshots handed out earlier never change.
type questionStore struct {
	logs []*entity.QuestionLog
}

func newQuestionStore(questions []string) *questionStore {
	logs := make([]*entity.QuestionLog, len(questions))
	for i, q := range questions {
		logs[i] = &entity.QuestionLog{
			Index:    i,
			Question: q,
			Messages: []entity.Message{},
		}
	}
	return &questionStore{logs: logs}
}

func (s *questionStore) len() int { return len(s.logs) }

func (s *questionStore) get(idx int) (*entity.QuestionLog, error) {
	if idx < 0 || idx >= len(s.logs) {
		return nil, fmt.Errorf("%w: %d", entity.ErrInvalidPage, idx)
	}
	return s.logs[idx], nil
}

func (s *questionStore) update(idx int, fn func(l *entity.QuestionLog) error) error {
	cur, err := s.get(idx)
	if err != nil {
		return err
	}
	next := cur.Clone()
	if err := fn(next); err != nil {
		return err
	}
	s.logs[idx] = next
	return nil
}

// appendMessage adds a message unless its text is empty or repeats the last
// message of the question. It reports whether the message was added.
func (s *questionStore) appendMessage(idx int, speaker entity.Speaker, text string) bool {
	added := false
	_ = s.update(idx, func(l *entity.QuestionLog) error {
		if text == "" {
			return nil
		}
		if n := len(l.Messages); n > 0 && l.Messages[n-1].Text == text {
			return nil
		}
		l.Messages = append(l.Messages, entity.Message{Speaker: speaker, Text: text})
		added = true
		return nil
	})
	return added
}

// answerText joins the candidate's messages of a question with single spaces
func (s *questionStore) answerText(idx int) string {
	l, err := s.get(idx)
	if err != nil {
		return ""
	}
	var parts []string
	for _, m := range l.Messages {
		if m.Speaker == entity.SpeakerYou {
			parts = append(parts, m.Text)
		}
	}
	return strings.Join(parts, " ")
}

// setEmotions stores the prediction of a question. Emotions are write-once.
func (s *questionStore) setEmotions(idx int, probs entity.Probabilities) error {
	return s.update(idx, func(l *entity.QuestionLog) error {
		if l.Emotions != nil {
			return fmt.Errorf("%w: question %d", entity.ErrEmotionsSet, idx)
		}
		l.Emotions = append(entity.Probabilities{}, probs...)
		return nil
	})
}

func (s *questionStore) setAnswer(idx int, answer string) {
	_ = s.update(idx, func(l *entity.QuestionLog) error {
		l.AnswerText = &answer
		return nil
	})
}

func (s *questionStore) setUploadError(idx int, msg string) {
	_ = s.update(idx, func(l *entity.QuestionLog) error {
		l.UploadError = &msg
		return nil
	})
}

func (s *questionStore) snapshot() []*entity.QuestionLog {
	out := make([]*entity.QuestionLog, len(s.logs))
	for i, l := range s.logs {
		out[i] = l.Clone()
	}
	return out
}
