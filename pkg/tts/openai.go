package tts

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Voices accepted by the speech endpoint.
var Voices = []string{"alloy", "echo", "fable", "onyx", "nova", "shimmer"}

func ValidVoice(voice string) bool {
	for _, v := range Voices {
		if v == voice {
			return true
		}
	}
	return false
}

// OpenAIClient renders digest text to mp3 files under outputDir.
type OpenAIClient struct {
	client    *openai.Client
	outputDir string
}

func NewOpenAIClient(apiKey, outputDir string) *OpenAIClient {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIClient{client: &client, outputDir: outputDir}
}

func (c *OpenAIClient) Synthesize(ctx context.Context, text, voice string) (string, error) {
	if text == "" {
		return "", fmt.Errorf("nothing to synthesize")
	}
	if !ValidVoice(voice) {
		return "", fmt.Errorf("unknown voice %q", voice)
	}

	resp, err := c.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model: openai.SpeechModelTTS1,
		Voice: openai.AudioSpeechNewParamsVoice(voice),
		Input: text,
	})
	if err != nil {
		return "", fmt.Errorf("openai speech error: %w", err)
	}
	defer resp.Body.Close()

	dir := filepath.Join(c.outputDir, time.Now().Format("2006-01-02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating audio dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("digest_%s.mp3", time.Now().Format("150405")))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating audio file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", fmt.Errorf("writing audio file: %w", err)
	}

	return path, nil
}
