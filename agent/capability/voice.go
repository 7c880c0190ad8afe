package capability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode"
)

const voiceBaseURL = "https://api.elevenlabs.io/v1"

type VoiceConfig struct {
	APIKey  string        `envconfig:"API_KEY" split_words:"true"`
	VoiceID string        `envconfig:"VOICE_ID" split_words:"true" default:"21m00Tcm4TlvDq8ikWAM"`
	ModelID string        `envconfig:"MODEL_ID" split_words:"true" default:"eleven_turbo_v2"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
}

// VoiceSynthesizer turns finished responses into speech via the ElevenLabs
// API. It is not offered to the model as a tool; the chat front end decides
// when to speak a response.
type VoiceSynthesizer struct {
	apiKey     string
	voiceID    string
	modelID    string
	httpClient *http.Client
}

func NewVoiceSynthesizer(cfg VoiceConfig) (*VoiceSynthesizer, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("voice synthesizer: api key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &VoiceSynthesizer{
		apiKey:     apiKey,
		voiceID:    cfg.VoiceID,
		modelID:    cfg.ModelID,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Synthesize converts text to MP3 audio. Markdown markup and emoji are
// stripped first so they are not read aloud.
func (v *VoiceSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	cleaned := PreprocessForSpeech(text)
	if cleaned == "" {
		return nil, errors.New("nothing to synthesize")
	}

	payload, err := json.Marshal(map[string]any{
		"text":     cleaned,
		"model_id": v.modelID,
		"voice_settings": map[string]any{
			"stability":        0.5,
			"similarity_boost": 0.75,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal tts request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/text-to-speech/%s", voiceBaseURL, v.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build tts request: %w", err)
	}
	req.Header.Set("xi-api-key", v.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tts status=%d body=%s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

var (
	markdownLinkPattern = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	urlPattern          = regexp.MustCompile(`https?://\S+`)
	markupPattern       = regexp.MustCompile("[*_#`~]")
)

// PreprocessForSpeech strips markdown markup, links, and emoji so the
// synthesized audio contains only readable prose.
func PreprocessForSpeech(text string) string {
	text = markdownLinkPattern.ReplaceAllString(text, "$1")
	text = urlPattern.ReplaceAllString(text, "link")
	text = markupPattern.ReplaceAllString(text, "")

	var b strings.Builder
	for _, r := range text {
		if unicode.IsSymbol(r) && r > unicode.MaxASCII {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(strings.Join(strings.Fields(b.String()), " "))
}
