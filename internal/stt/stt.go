// Package stt transcribes buffered audio chunks through Deepgram's
// prerecorded API.
package stt

import (
	"bytes"
	"context"
	"strings"

	prerecorded "github.com/deepgram/deepgram-go-sdk/pkg/api/prerecorded/v1"
	"github.com/deepgram/deepgram-go-sdk/pkg/client/interfaces"
	prerecordedClient "github.com/deepgram/deepgram-go-sdk/pkg/client/prerecorded"
)

// Transcriber turns one WAV chunk into text. An empty string with a
// nil error means the chunk held no recognizable speech.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte) (string, error)
}

type Client struct {
	dg    *prerecorded.PrerecordedClient
	model string
}

func NewClient(apiKey, model string) *Client {
	c := prerecordedClient.New(apiKey, interfaces.ClientOptions{})
	return &Client{dg: prerecorded.New(c), model: model}
}

func (c *Client) Transcribe(ctx context.Context, wav []byte) (string, error) {
	res, err := c.dg.FromStream(ctx, bytes.NewReader(wav), &interfaces.PreRecordedTranscriptionOptions{
		Model:       c.model,
		Language:    "en-US",
		SmartFormat: true,
		Punctuate:   true,
	})
	if err != nil {
		return "", err
	}
	if res == nil || len(res.Results.Channels) == 0 || len(res.Results.Channels[0].Alternatives) == 0 {
		return "", nil
	}
	return strings.TrimSpace(res.Results.Channels[0].Alternatives[0].Transcript), nil
}
