package entity

// PredictMetadata is sent as the json_data part of the /predict upload
type PredictMetadata struct {
	QuestionIndex int    `json:"questionIndex"`
	Question      string `json:"question"`
	AnswerText    string `json:"answerText"`
}

// PredictRequest carries the finalized artifacts of one recording cycle
type PredictRequest struct {
	Video         []byte
	VideoFilename string
	Audio         []byte
	AudioFilename string
	Metadata      PredictMetadata
}

type PredictResponse struct {
	Status        string         `json:"status,omitempty"`
	Emotion       *string        `json:"emotion,omitempty"`
	Probabilities Probabilities  `json:"probabilities"`
	Error         *string        `json:"error,omitempty"`
	Debug         map[string]any `json:"debug,omitempty"`
}

// PredictEmotionResponse is the single-question variant response
type PredictEmotionResponse struct {
	Emotion string `json:"emotion,omitempty"`
	Error   string `json:"error,omitempty"`
}

type ASRTranscribeResponse struct {
	Transcriptions string `json:"transcriptions"`
}
