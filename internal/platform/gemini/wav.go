package gemini

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"mime"
	"strconv"
	"strings"
)

const (
	// DefaultSampleRate is used when the model omits the rate parameter.
	DefaultSampleRate = 24000

	wavMIMEType   = "audio/wav"
	wavHeaderSize = 44
	bitsPerSample = 16
	channels      = 1
)

// packageAudio returns browser-playable audio. Raw PCM (audio/L16 or
// audio/pcm) is wrapped in a WAV header; containers pass through unchanged.
func packageAudio(data []byte, mimeType string) ([]byte, string, error) {
	base, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedAudio, mimeType)
	}

	switch base {
	case "audio/l16", "audio/pcm":
		rate := DefaultSampleRate
		if r, err := strconv.Atoi(params["rate"]); err == nil && r > 0 {
			rate = r
		}
		return WrapPCM(data, rate), wavMIMEType, nil
	case "audio/wav", "audio/x-wav", "audio/wave", "audio/mpeg", "audio/ogg":
		return data, base, nil
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedAudio, strings.TrimSpace(mimeType))
	}
}

// WrapPCM prepends a canonical RIFF/WAVE header to mono 16-bit
// little-endian PCM samples.
func WrapPCM(pcm []byte, sampleRate int) []byte {
	blockAlign := channels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign

	var buf bytes.Buffer
	buf.Grow(wavHeaderSize + len(pcm))

	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(wavHeaderSize-8+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}
