package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/fitbuddy/internal/constants"
	"github.com/julianstephens/fitbuddy/internal/errors"
	"github.com/julianstephens/fitbuddy/internal/voice"
)

// fakeLive is a scripted BidiGenerateContent server.
type fakeLive struct {
	setup    chan map[string]any
	received chan map[string]any
	key      chan string
	// script runs after the setup exchange.
	script func(conn *websocket.Conn)
	// skipSetupComplete withholds the handshake reply.
	skipSetupComplete bool
}

func newFakeLive(t *testing.T, f *fakeLive) *LiveTransport {
	t.Helper()
	f.setup = make(chan map[string]any, 1)
	f.received = make(chan map[string]any, 16)
	f.key = make(chan string, 1)
	upgrader := websocket.Upgrader{}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.key <- r.URL.Query().Get("key")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var setup map[string]any
		if err := conn.ReadJSON(&setup); err != nil {
			return
		}
		f.setup <- setup
		if f.skipSetupComplete {
			_, _, _ = conn.ReadMessage()
			return
		}
		_ = conn.WriteMessage(websocket.BinaryMessage, []byte(`{"setupComplete":{}}`))

		go func() {
			for {
				var msg map[string]any
				if err := conn.ReadJSON(&msg); err != nil {
					return
				}
				f.received <- msg
			}
		}()
		if f.script != nil {
			f.script(conn)
		}
	}))
	t.Cleanup(ts.Close)

	lt, err := NewLiveTransport(LiveConfig{
		APIKey: "live-key",
		URL:    "ws" + strings.TrimPrefix(ts.URL, "http"),
		Model:  "test-model",
	})
	require.NoError(t, err)
	return lt
}

func TestNewLiveTransportRequiresAPIKey(t *testing.T) {
	_, err := NewLiveTransport(LiveConfig{})
	require.ErrorIs(t, err, errors.ErrConfiguration)
}

func TestLiveConnectSendsSetup(t *testing.T) {
	f := &fakeLive{script: func(conn *websocket.Conn) {
		time.Sleep(200 * time.Millisecond)
	}}
	lt := newFakeLive(t, f)

	stream, err := lt.Connect(context.Background())
	require.NoError(t, err)
	defer stream.Close()

	require.Equal(t, "live-key", <-f.key)
	setup := (<-f.setup)["setup"].(map[string]any)
	require.Equal(t, "models/test-model", setup["model"])
	require.Contains(t, setup, "inputAudioTranscription")
	require.Contains(t, setup, "outputAudioTranscription")

	gen := setup["generationConfig"].(map[string]any)
	require.Equal(t, []any{"AUDIO"}, gen["responseModalities"])
	voiceName := gen["speechConfig"].(map[string]any)["voiceConfig"].(map[string]any)["prebuiltVoiceConfig"].(map[string]any)["voiceName"]
	require.Equal(t, constants.DefaultVoiceName, voiceName)

	instruction := setup["systemInstruction"].(map[string]any)["parts"].([]any)[0].(map[string]any)["text"]
	require.Equal(t, constants.LiveSystemInstruction, instruction)
}

func TestLiveSendAudio(t *testing.T) {
	f := &fakeLive{script: func(conn *websocket.Conn) {
		time.Sleep(500 * time.Millisecond)
	}}
	lt := newFakeLive(t, f)

	stream, err := lt.Connect(context.Background())
	require.NoError(t, err)
	defer stream.Close()

	require.NoError(t, stream.SendAudio(voice.MediaChunk{Data: "AAA=", MIMEType: constants.InputMIMEType}))

	select {
	case msg := <-f.received:
		chunks := msg["realtimeInput"].(map[string]any)["mediaChunks"].([]any)
		require.Len(t, chunks, 1)
		chunk := chunks[0].(map[string]any)
		require.Equal(t, "AAA=", chunk["data"])
		require.Equal(t, "audio/pcm;rate=16000", chunk["mimeType"])
	case <-time.After(2 * time.Second):
		t.Fatal("server never received audio")
	}
}

func TestLiveRecv(t *testing.T) {
	messages := []string{
		`{"usageMetadata":{"totalTokenCount":12}}`,
		`{"serverContent":{"inputTranscription":{"text":"how much protein"}}}`,
		`{"serverContent":{"modelTurn":{"parts":[{"inlineData":{"mimeType":"audio/pcm;rate=24000","data":"AQI="}},{"text":"ignored"},{"inlineData":{"mimeType":"audio/pcm;rate=24000","data":"AwQ="}}]},"outputTranscription":{"text":"About 150 grams"}}}`,
		`{"serverContent":{"interrupted":true}}`,
		`{"serverContent":{"turnComplete":true}}`,
	}
	f := &fakeLive{script: func(conn *websocket.Conn) {
		for _, m := range messages {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(m))
		}
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		time.Sleep(100 * time.Millisecond)
	}}
	lt := newFakeLive(t, f)

	stream, err := lt.Connect(context.Background())
	require.NoError(t, err)
	defer stream.Close()

	msg, err := stream.Recv()
	require.NoError(t, err)
	require.Equal(t, voice.ServerMessage{InputTranscript: "how much protein"}, msg)

	msg, err = stream.Recv()
	require.NoError(t, err)
	require.Equal(t, voice.ServerMessage{OutputTranscript: "About 150 grams", Audio: []string{"AQI=", "AwQ="}}, msg)

	msg, err = stream.Recv()
	require.NoError(t, err)
	require.True(t, msg.Interrupted)

	msg, err = stream.Recv()
	require.NoError(t, err)
	require.True(t, msg.TurnComplete)

	_, err = stream.Recv()
	require.ErrorIs(t, err, io.EOF)
}

func TestLiveRecvAbnormalCloseIsTransportError(t *testing.T) {
	f := &fakeLive{script: func(conn *websocket.Conn) {
		conn.Close()
	}}
	lt := newFakeLive(t, f)

	stream, err := lt.Connect(context.Background())
	require.NoError(t, err)
	defer stream.Close()

	_, err = stream.Recv()
	require.ErrorIs(t, err, errors.ErrTransport)
}

func TestLiveConnectHonorsContext(t *testing.T) {
	f := &fakeLive{skipSetupComplete: true}
	lt := newFakeLive(t, f)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := lt.Connect(ctx)
	require.ErrorIs(t, err, errors.ErrTransport)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestLiveConnectRefused(t *testing.T) {
	lt, err := NewLiveTransport(LiveConfig{APIKey: "secret-key", URL: "ws://127.0.0.1:1/ws"})
	require.NoError(t, err)

	_, err = lt.Connect(context.Background())
	require.ErrorIs(t, err, errors.ErrTransport)
	require.NotContains(t, err.Error(), "secret-key")
}

func TestLiveCloseIdempotent(t *testing.T) {
	f := &fakeLive{script: func(conn *websocket.Conn) {
		time.Sleep(100 * time.Millisecond)
	}}
	lt := newFakeLive(t, f)

	stream, err := lt.Connect(context.Background())
	require.NoError(t, err)
	require.NotPanics(t, func() {
		_ = stream.Close()
		_ = stream.Close()
	})
}

func TestConvertSkipsEmpty(t *testing.T) {
	var raw liveServerMessage
	require.NoError(t, json.Unmarshal([]byte(`{"serverContent":{"modelTurn":{"parts":[{"text":"thinking"}]}}}`), &raw))
	_, ok := convert(raw)
	require.False(t, ok)
}
