// Package audio converts between float samples and PCM16, captures
// microphone frames from an external recorder and mixes scheduled buffers
// into a PCM16 output stream.
package audio

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// Buffer is mono float audio in [-1, 1] at SampleRate.
type Buffer struct {
	Samples    []float32
	SampleRate int
}

// Duration is the playback length of the buffer.
func (b Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(b.Samples)) * time.Second / time.Duration(b.SampleRate)
}

// Seconds is Duration as fractional seconds.
func (b Buffer) Seconds() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// FloatToPCM16 scales samples by 32768 and clamps to the int16 range,
// returning little-endian bytes.
func FloatToPCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(toInt16(s)))
	}
	return out
}

func toInt16(s float32) int16 {
	if math.IsNaN(float64(s)) {
		return 0
	}
	v := float64(s) * 32768
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// PCM16ToFloat decodes little-endian PCM16 into samples divided by 32768.
// A trailing odd byte is ignored.
func PCM16ToFloat(data []byte) []float32 {
	n := len(data) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = float32(int16(binary.LittleEndian.Uint16(data[i*2:]))) / 32768
	}
	return out
}

// EncodeFrame converts a captured frame to base64 PCM16.
func EncodeFrame(samples []float32) string {
	return base64.StdEncoding.EncodeToString(FloatToPCM16(samples))
}

// DecodeFragment decodes a base64 PCM16 fragment into a buffer at rate.
func DecodeFragment(data string, rate int) (Buffer, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return Buffer{}, fmt.Errorf("decode audio fragment: %w", err)
	}
	return Buffer{Samples: PCM16ToFloat(raw), SampleRate: rate}, nil
}
