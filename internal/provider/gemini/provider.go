package gemini

import (
	"context"
	"net/http"
	"strings"

	genai "google.golang.org/genai"

	"github.com/julianshen/componentdoc/internal/errors"
	"github.com/julianshen/componentdoc/internal/provider"
)

func init() {
	provider.RegisterProvider("gemini", func(baseURL, apiKey string, extraHeaders map[string]string) (provider.LLMProvider, error) {
		return New(context.Background(), baseURL, apiKey, extraHeaders)
	})
}

// generator is the subset of *genai.Models the provider calls.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Provider adapts the Gemini API to the LLMProvider interface. Gemini
// answers in one response, so Stream emits a single text delta then stop.
type Provider struct {
	models generator
}

// New creates a Gemini provider. baseURL and extraHeaders are optional.
func New(ctx context.Context, baseURL, apiKey string, extraHeaders map[string]string) (*Provider, error) {
	cc := &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
	if baseURL != "" {
		cc.HTTPOptions.BaseURL = baseURL
	}
	if len(extraHeaders) > 0 {
		cc.HTTPOptions.Headers = http.Header{}
		for k, v := range extraHeaders {
			cc.HTTPOptions.Headers.Set(k, v)
		}
	}
	cli, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, errors.Wrap(err, "creating gemini client")
	}
	return &Provider{models: cli.Models}, nil
}

// Stream implements provider.LLMProvider.
func (p *Provider) Stream(ctx context.Context, req provider.CompletionRequest) (<-chan provider.StreamEvent, error) {
	contents, cfg := buildRequest(req)
	resp, err := p.models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "gemini generate content")
	}
	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}

	stop := provider.StreamEvent{Type: provider.EventStop}
	if u := resp.UsageMetadata; u != nil {
		stop.InputTokens = int(u.PromptTokenCount)
		stop.OutputTokens = int(u.CandidatesTokenCount)
	}

	ch := make(chan provider.StreamEvent, 2)
	ch <- provider.StreamEvent{Type: provider.EventTextDelta, Text: text}
	ch <- stop
	close(ch)
	return ch, nil
}

func buildRequest(req provider.CompletionRequest) ([]*genai.Content, *genai.GenerateContentConfig) {
	cfg := &genai.GenerateContentConfig{
		Temperature:      float32Ptr(req.Temperature),
		TopP:             float32Ptr(req.TopP),
		FrequencyPenalty: float32Ptr(req.FrequencyPenalty),
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		role := genai.RoleUser
		if msg.Role == "assistant" {
			role = genai.RoleModel
		}
		c := &genai.Content{Role: role}
		for _, block := range msg.Content {
			if block.Type == "text" {
				c.Parts = append(c.Parts, &genai.Part{Text: block.Text})
			}
		}
		contents = append(contents, c)
	}
	return contents, cfg
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini returned no candidates")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}

func float32Ptr(v *float64) *float32 {
	if v == nil {
		return nil
	}
	f := float32(*v)
	return &f
}
