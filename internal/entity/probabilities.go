package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EmotionProbability is a single label/probability pair of a prediction
type EmotionProbability struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// Probabilities is an emotion label -> probability mapping that keeps the
// key order of the JSON object it was decoded from.
type Probabilities []EmotionProbability

// Get returns the probability for label
func (p Probabilities) Get(label string) (float64, bool) {
	for _, e := range p {
		if e.Label == label {
			return e.Probability, true
		}
	}
	return 0, false
}

func (p Probabilities) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Label)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Probability)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (p *Probabilities) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: probabilities: %v", ErrInvalidFormat, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w: probabilities must be an object", ErrInvalidFormat)
	}

	out := Probabilities{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: probabilities key: %v", ErrInvalidFormat, err)
		}
		label, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("%w: probabilities key is not a string", ErrInvalidFormat)
		}
		var prob float64
		if err := dec.Decode(&prob); err != nil {
			return fmt.Errorf("%w: probability for %q: %v", ErrInvalidFormat, label, err)
		}
		out = append(out, EmotionProbability{Label: label, Probability: prob})
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("%w: probabilities: %v", ErrInvalidFormat, err)
	}

	*p = out
	return nil
}
