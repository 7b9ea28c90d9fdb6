package constants

import "time"

const (
	// Hosted model defaults
	DefaultAPIBaseURL   = "https://generativelanguage.googleapis.com"
	DefaultLiveURL      = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"
	DefaultVisionModel  = "gemini-2.5-flash"
	DefaultAdviceModel  = "gemini-2.5-flash"
	DefaultLiveModel    = "gemini-2.5-flash-native-audio-preview-09-2025"
	DefaultVoiceName    = "Zephyr"
	DefaultHTTPTimeout  = 30 * time.Second
	DefaultConnectLimit = 15 * time.Second

	LiveSystemInstruction = "You are a friendly and encouraging fitness and nutrition assistant. Keep your answers concise and positive."
	MealAnalysisPrompt    = "Analyze the meal in this image. Provide the meal name and estimate the nutritional content (calories, protein, carbs, fat)."

	// Audio framing
	InputSampleRate  = 16000
	OutputSampleRate = 24000
	CaptureFrameSize = 4096
	InputMIMEType    = "audio/pcm;rate=16000"

	// Audio device commands. Both exchange raw S16_LE mono PCM on stdio.
	DefaultMicCommand     = "arecord -q -t raw -f S16_LE -c 1 -r 16000"
	DefaultSpeakerCommand = "aplay -q -t raw -f S16_LE -c 1 -r 24000"

	// User-facing status and fallback text
	ChatFallbackText     = "Sorry, I had trouble getting a response. Please try again."
	AnalysisFailedText   = "Failed to analyze image. Please try again."
	AdviceFailedText     = "Failed to get advice from AI. Please try again."
	StatusConnecting     = "Connecting to AI..."
	StatusListening      = "I'm listening..."
	StatusClosed         = "Connection closed."
	StatusConnectionFail = "Sorry, a connection error occurred."
	StatusStartFailed    = "Could not start session. Check permissions?"
	StatusMissingKey     = "API key not found."
	StatusPlaybackFailed = "Audio playback stopped. Check your speaker?"
)
