package voice

import "context"

// MediaChunk is one outbound frame of captured audio.
type MediaChunk struct {
	// Data is base64 of little-endian PCM16 mono samples.
	Data     string
	MIMEType string
}

// ServerMessage is one inbound message from the voice service. A single
// message may carry any combination of fields.
type ServerMessage struct {
	InputTranscript  string
	OutputTranscript string
	TurnComplete     bool
	Interrupted      bool
	// Audio holds base64 PCM16 mono fragments in playback order.
	Audio []string
}

// Stream is an open bidirectional session with the voice service.
// SendAudio is only called from one goroutine at a time. Recv blocks until a
// message arrives, the server closes the stream (io.EOF) or Close is called.
type Stream interface {
	SendAudio(chunk MediaChunk) error
	Recv() (ServerMessage, error)
	Close() error
}

// Transport opens streams. Connect returns once the service has accepted
// the session setup.
type Transport interface {
	Connect(ctx context.Context) (Stream, error)
}
