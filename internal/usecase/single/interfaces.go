package single

import "context"

// EmotionPredictor classifies the emotion of a single audio answer
type EmotionPredictor interface {
	PredictEmotion(ctx context.Context, audio []byte, filename string) (string, error)
}
