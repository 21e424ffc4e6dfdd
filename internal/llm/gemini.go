package llm

import (
	"context"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// GeminiOptions controls how the Gemini completer is initialised.
type GeminiOptions struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	HTTPClient  *http.Client
	Logger      *logrus.Logger
}

// GeminiCompleter generates text through the Gemini API.
type GeminiCompleter struct {
	models      contentGenerator
	logger      *logrus.Logger
	model       string
	temperature float32
}

var _ Completer = (*GeminiCompleter)(nil)

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// NewGeminiCompleter builds a Gemini API client for the configured model.
func NewGeminiCompleter(ctx context.Context, opts GeminiOptions) (*GeminiCompleter, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, eris.New("llm api key is required")
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return nil, eris.New("llm model is required")
	}

	config := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if baseURL := strings.TrimSpace(opts.BaseURL); baseURL != "" {
		config.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, eris.Wrap(err, "creating gemini client")
	}

	return newGeminiCompleter(client.Models, opts.Logger, model, opts.Temperature), nil
}

func newGeminiCompleter(models contentGenerator, logger *logrus.Logger, model string, temperature float64) *GeminiCompleter {
	if temperature <= 0 {
		temperature = defaultTemperature
	}

	return &GeminiCompleter{
		models:      models,
		logger:      logger,
		model:       model,
		temperature: float32(temperature),
	}
}

// Complete sends the input as a single user turn with the system prompt as instruction.
func (c *GeminiCompleter) Complete(ctx context.Context, systemPrompt, input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", eris.New("input is required")
	}

	fields := logrus.Fields{"provider": "gemini", "llm_model": c.model}

	config := &genai.GenerateContentConfig{Temperature: genai.Ptr(c.temperature)}
	if prompt := strings.TrimSpace(systemPrompt); prompt != "" {
		config.SystemInstruction = genai.NewContentFromText(prompt, genai.RoleUser)
	}

	resp, err := c.models.GenerateContent(ctx, c.model, []*genai.Content{
		genai.NewContentFromText(input, genai.RoleUser),
	}, config)
	if err != nil {
		logError(c.logger, fields, err, "requesting gemini content")
		return "", eris.Wrap(err, "requesting gemini content")
	}
	if resp == nil {
		logError(c.logger, fields, ErrEmptyResponse, "processing gemini response")
		return "", eris.Wrap(ErrEmptyResponse, "gemini returned no response")
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		err := eris.Wrapf(ErrBlocked, "prompt blocked: %s", resp.PromptFeedback.BlockReason)
		logError(c.logger, fields, err, "gemini blocked prompt")
		return "", err
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0] != nil && resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		err := eris.Wrap(ErrBlocked, "candidate stopped for safety")
		logError(c.logger, fields, err, "gemini blocked candidate")
		return "", err
	}

	text := trimCodeFence(resp.Text())
	if text == "" {
		logError(c.logger, fields, ErrEmptyResponse, "processing gemini response")
		return "", eris.Wrap(ErrEmptyResponse, "processing gemini response")
	}

	return text, nil
}
