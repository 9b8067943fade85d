package deepgram

import (
	"bytes"
	"context"
	"fmt"

	prerecorded "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/pkg/client/interfaces"
	listen "github.com/deepgram/deepgram-go-sdk/pkg/client/listen"
	"github.com/vbracun/aria-core/core/speechtotext"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultModel    = "nova-3"
	defaultLanguage = "en"
)

// TranscriptionClient transcribes a complete utterance in one bounded
// request against the Deepgram pre-recorded API.
type TranscriptionClient struct {
	client *prerecorded.Client
}

func NewTranscriptionClient(apiKey string) *TranscriptionClient {
	rest := listen.NewREST(apiKey, &interfaces.ClientOptions{})
	return &TranscriptionClient{client: prerecorded.New(rest)}
}

// Transcribe submits the audio bytes and returns the transcript of the
// best alternative.
func (c *TranscriptionClient) Transcribe(ctx context.Context, audio []byte, opts ...speechtotext.TranscriptionOption) (string, error) {
	ctx, span := tracer.Start(ctx, "transcribe audio")
	defer span.End()
	span.SetAttributes(attribute.Int("request.audio_bytes", len(audio)))

	options := speechtotext.TranscriptionOptions{
		Model:    defaultModel,
		Language: defaultLanguage,
	}
	for _, opt := range opts {
		opt(&options)
	}
	span.SetAttributes(
		attribute.String("request.model", options.Model),
		attribute.String("request.mime_type", options.MIMEType),
	)

	response, err := c.client.FromStream(ctx, bytes.NewReader(audio), &interfaces.PreRecordedTranscriptionOptions{
		Model:       options.Model,
		Language:    options.Language,
		SmartFormat: true,
		Punctuate:   true,
	})
	if err != nil {
		err = fmt.Errorf("failed to transcribe audio: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	if response == nil ||
		len(response.Results.Channels) == 0 ||
		len(response.Results.Channels[0].Alternatives) == 0 {
		return "", fmt.Errorf("transcription returned no alternatives")
	}
	transcript := response.Results.Channels[0].Alternatives[0].Transcript
	span.SetAttributes(attribute.Int("response.transcript_length", len(transcript)))
	return transcript, nil
}
