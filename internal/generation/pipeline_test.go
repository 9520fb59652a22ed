package generation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSynth struct {
	audio *Audio
	err   error
	calls int
	voice string
}

func (f *fakeSynth) Synthesize(_ context.Context, _ string, voice string) (*Audio, error) {
	f.calls++
	f.voice = voice
	return f.audio, f.err
}

type fakeArtifacts struct {
	key         string
	contentType string
	data        []byte
	err         error
}

func (f *fakeArtifacts) Put(_ context.Context, key, contentType string, data []byte) (string, error) {
	f.key, f.contentType, f.data = key, contentType, data
	if f.err != nil {
		return "", f.err
	}
	return "https://cdn.example.com/" + key, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSpeechPipeline_Generate(t *testing.T) {
	t.Parallel()

	t.Run("stores synthesized audio", func(t *testing.T) {
		t.Parallel()

		synth := &fakeSynth{audio: &Audio{Data: []byte("RIFF...."), MIMEType: "audio/wav"}}
		store := &fakeArtifacts{}
		p, err := NewSpeechPipeline(synth, store, discardLogger())
		require.NoError(t, err)

		art, err := p.Generate(context.Background(), Request{Key: "post-42", Text: "Hello", Voice: "Puck"})

		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/audio/post-42.wav", art.URL)
		assert.Equal(t, "audio/wav", art.ContentType)
		assert.EqualValues(t, 8, art.Size)
		assert.Equal(t, "audio/post-42.wav", store.key)
		assert.Equal(t, "Puck", synth.voice)
	})

	t.Run("empty text never reaches the synthesizer", func(t *testing.T) {
		t.Parallel()

		synth := &fakeSynth{}
		p, err := NewSpeechPipeline(synth, &fakeArtifacts{}, discardLogger())
		require.NoError(t, err)

		_, err = p.Generate(context.Background(), Request{Key: "k", Text: "  "})

		assert.ErrorIs(t, err, ErrEmptyText)
		assert.Zero(t, synth.calls)
	})

	t.Run("synthesis error passes through", func(t *testing.T) {
		t.Parallel()

		synth := &fakeSynth{err: ErrContentBlocked}
		store := &fakeArtifacts{}
		p, err := NewSpeechPipeline(synth, store, discardLogger())
		require.NoError(t, err)

		_, err = p.Generate(context.Background(), Request{Key: "k", Text: "t"})

		assert.ErrorIs(t, err, ErrContentBlocked)
		assert.Empty(t, store.key)
	})

	t.Run("empty audio", func(t *testing.T) {
		t.Parallel()

		p, err := NewSpeechPipeline(&fakeSynth{audio: &Audio{}}, &fakeArtifacts{}, discardLogger())
		require.NoError(t, err)

		_, err = p.Generate(context.Background(), Request{Key: "k", Text: "t"})

		assert.ErrorIs(t, err, ErrInvalidResponse)
	})

	t.Run("storage error", func(t *testing.T) {
		t.Parallel()

		synth := &fakeSynth{audio: &Audio{Data: []byte{1}, MIMEType: "audio/wav"}}
		p, err := NewSpeechPipeline(synth, &fakeArtifacts{err: errors.New("bucket gone")}, discardLogger())
		require.NoError(t, err)

		_, err = p.Generate(context.Background(), Request{Key: "k", Text: "t"})

		assert.ErrorIs(t, err, ErrStorageFailed)
		assert.ErrorContains(t, err, "bucket gone")
	})

	t.Run("requires collaborators", func(t *testing.T) {
		t.Parallel()

		_, err := NewSpeechPipeline(nil, &fakeArtifacts{}, discardLogger())
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestObjectKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "audio/post-42.wav", ObjectKey("audio", "post-42", "audio/wav"))
	assert.Equal(t, "audio/post-42.mp3", ObjectKey("audio", "post-42", "audio/mpeg"))
	assert.Equal(t, "audio/a_b_c.wav", ObjectKey("audio", "a/b c", "audio/wav; rate=24000"))
	assert.Equal(t, "audio/artifact", ObjectKey("audio", "../", "bogus"))
}
