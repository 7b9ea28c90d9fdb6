package gemini

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/julianstephens/fitbuddy/internal/constants"
	"github.com/julianstephens/fitbuddy/internal/errors"
	"github.com/julianstephens/fitbuddy/internal/logger"
	"github.com/julianstephens/fitbuddy/internal/voice"
)

const closeWriteWait = time.Second

// LiveConfig configures a LiveTransport.
type LiveConfig struct {
	APIKey            string
	URL               string
	Model             string
	VoiceName         string
	SystemInstruction string
	Dialer            *websocket.Dialer
}

// LiveTransport opens BidiGenerateContent websocket sessions. It implements
// voice.Transport.
type LiveTransport struct {
	cfg LiveConfig
	log *log.Logger
}

var _ voice.Transport = (*LiveTransport)(nil)

// NewLiveTransport validates cfg and fills defaults.
func NewLiveTransport(cfg LiveConfig) (*LiveTransport, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.Configuration("gemini.new_live_transport", constants.StatusMissingKey)
	}
	if cfg.URL == "" {
		cfg.URL = constants.DefaultLiveURL
	}
	if cfg.Model == "" {
		cfg.Model = constants.DefaultLiveModel
	}
	if cfg.VoiceName == "" {
		cfg.VoiceName = constants.DefaultVoiceName
	}
	if cfg.SystemInstruction == "" {
		cfg.SystemInstruction = constants.LiveSystemInstruction
	}
	if cfg.Dialer == nil {
		cfg.Dialer = &websocket.Dialer{HandshakeTimeout: constants.DefaultConnectLimit}
	}
	return &LiveTransport{cfg: cfg, log: logger.Component("live")}, nil
}

type liveSetup struct {
	Setup setupBody `json:"setup"`
}

type setupBody struct {
	Model                    string         `json:"model"`
	GenerationConfig         map[string]any `json:"generationConfig"`
	SystemInstruction        content        `json:"systemInstruction"`
	InputAudioTranscription  struct{}       `json:"inputAudioTranscription"`
	OutputAudioTranscription struct{}       `json:"outputAudioTranscription"`
}

type realtimeInput struct {
	RealtimeInput struct {
		MediaChunks []inlineData `json:"mediaChunks"`
	} `json:"realtimeInput"`
}

type transcription struct {
	Text string `json:"text"`
}

// liveServerMessage covers the fields the session reacts to. Anything else
// the service sends (usage metadata, tool calls) is ignored.
type liveServerMessage struct {
	SetupComplete *struct{} `json:"setupComplete"`
	ServerContent *struct {
		ModelTurn *struct {
			Parts []part `json:"parts"`
		} `json:"modelTurn"`
		InputTranscription  *transcription `json:"inputTranscription"`
		OutputTranscription *transcription `json:"outputTranscription"`
		TurnComplete        bool           `json:"turnComplete"`
		Interrupted         bool           `json:"interrupted"`
	} `json:"serverContent"`
	GoAway *struct {
		TimeLeft string `json:"timeLeft"`
	} `json:"goAway"`
}

func (t *LiveTransport) endpoint() (string, error) {
	u, err := url.Parse(t.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("invalid live URL: %w", err)
	}
	q := u.Query()
	q.Set("key", t.cfg.APIKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Connect dials the service, sends the session setup and waits for
// setupComplete. Cancelling ctx aborts the handshake.
func (t *LiveTransport) Connect(ctx context.Context) (voice.Stream, error) {
	const op = "gemini.live_connect"
	endpoint, err := t.endpoint()
	if err != nil {
		return nil, errors.Transport(op, err)
	}

	conn, _, err := t.cfg.Dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, errors.Transport(op, fmt.Errorf("dial: %w", redact(err, t.cfg.APIKey)))
	}

	// Unblock the handshake read if ctx ends first.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	model := t.cfg.Model
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}
	setup := liveSetup{Setup: setupBody{
		Model: model,
		GenerationConfig: map[string]any{
			"responseModalities": []string{"AUDIO"},
			"speechConfig": map[string]any{
				"voiceConfig": map[string]any{
					"prebuiltVoiceConfig": map[string]any{"voiceName": t.cfg.VoiceName},
				},
			},
		},
		SystemInstruction: content{Parts: []part{{Text: t.cfg.SystemInstruction}}},
	}}
	if err := conn.WriteJSON(setup); err != nil {
		conn.Close()
		return nil, errors.Transport(op, fmt.Errorf("send setup: %w", ctxErr(ctx, err)))
	}

	for {
		var msg liveServerMessage
		if err := readJSON(conn, &msg); err != nil {
			conn.Close()
			return nil, errors.Transport(op, fmt.Errorf("await setup: %w", ctxErr(ctx, err)))
		}
		if msg.SetupComplete != nil {
			break
		}
	}

	if !stop() {
		// ctx fired after setupComplete arrived; the connection is already closed.
		return nil, errors.Transport(op, ctx.Err())
	}
	t.log.Debug("Live session established", "model", model, "voice", t.cfg.VoiceName)
	return &liveStream{conn: conn, log: t.log}, nil
}

func ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// redact strips the API key from dial errors, which echo the URL.
func redact(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	return stderrors.New(strings.ReplaceAll(err.Error(), key, "REDACTED"))
}

// readJSON reads one text or binary frame and decodes it.
func readJSON(conn *websocket.Conn, v any) error {
	_, data, err := conn.ReadMessage()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

type liveStream struct {
	conn *websocket.Conn
	log  *log.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func (s *liveStream) SendAudio(chunk voice.MediaChunk) error {
	var msg realtimeInput
	msg.RealtimeInput.MediaChunks = []inlineData{{MIMEType: chunk.MIMEType, Data: chunk.Data}}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(msg); err != nil {
		return errors.Transport("gemini.live_send", err)
	}
	return nil
}

// Recv returns the next message that carries session content. A normal close
// from the server is reported as io.EOF.
func (s *liveStream) Recv() (voice.ServerMessage, error) {
	for {
		var raw liveServerMessage
		if err := readJSON(s.conn, &raw); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if stderrors.As(err, &syntaxErr) || stderrors.As(err, &typeErr) {
				s.log.Warn("Skipping malformed live message", "error", err)
				continue
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return voice.ServerMessage{}, io.EOF
			}
			return voice.ServerMessage{}, errors.Transport("gemini.live_recv", err)
		}
		if raw.GoAway != nil {
			s.log.Info("Live service is going away", "timeLeft", raw.GoAway.TimeLeft)
		}
		msg, ok := convert(raw)
		if ok {
			return msg, nil
		}
	}
}

func convert(raw liveServerMessage) (voice.ServerMessage, bool) {
	sc := raw.ServerContent
	if sc == nil {
		return voice.ServerMessage{}, false
	}
	var msg voice.ServerMessage
	if sc.InputTranscription != nil {
		msg.InputTranscript = sc.InputTranscription.Text
	}
	if sc.OutputTranscription != nil {
		msg.OutputTranscript = sc.OutputTranscription.Text
	}
	msg.TurnComplete = sc.TurnComplete
	msg.Interrupted = sc.Interrupted
	if sc.ModelTurn != nil {
		for _, p := range sc.ModelTurn.Parts {
			if isAudio(p.InlineData) {
				msg.Audio = append(msg.Audio, p.InlineData.Data)
			}
		}
	}
	empty := msg.InputTranscript == "" && msg.OutputTranscript == "" && !msg.TurnComplete && !msg.Interrupted && len(msg.Audio) == 0
	return msg, !empty
}

func isAudio(d *inlineData) bool {
	if d == nil || d.Data == "" {
		return false
	}
	return d.MIMEType == "" || strings.HasPrefix(d.MIMEType, "audio/")
}

// Close sends a close frame and closes the connection. Safe to call more
// than once and concurrently with Recv.
func (s *liveStream) Close() error {
	s.closeOnce.Do(func() {
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeWriteWait))
		s.writeMu.Unlock()
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}
