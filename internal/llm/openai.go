package llm

import (
	"context"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

const openAIBaseURL = "https://api.openai.com/v1"

// OpenAIOptions controls how the OpenAI-compatible completer is initialised.
type OpenAIOptions struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	HTTPClient  *http.Client
	Logger      *logrus.Logger
}

// OpenAICompleter sends chat completions to any OpenAI-compatible endpoint.
type OpenAICompleter struct {
	chat        chatCompletionClient
	logger      *logrus.Logger
	model       string
	temperature float64
	baseURL     string
}

var _ Completer = (*OpenAICompleter)(nil)

type chatCompletionClient interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// NewOpenAICompleter constructs a completer for the configured endpoint. SDK retries are disabled.
func NewOpenAICompleter(opts OpenAIOptions) (*OpenAICompleter, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, eris.New("llm api key is required")
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return nil, eris.New("llm model is required")
	}

	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL == "" {
		baseURL = openAIBaseURL
	}

	requestOptions := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	}

	if opts.HTTPClient != nil {
		requestOptions = append(requestOptions, option.WithHTTPClient(opts.HTTPClient))
	}

	apiClient := openai.NewClient(requestOptions...)

	return newOpenAICompleter(&apiClient.Chat.Completions, opts.Logger, model, opts.Temperature, baseURL), nil
}

func newOpenAICompleter(chat chatCompletionClient, logger *logrus.Logger, model string, temperature float64, baseURL string) *OpenAICompleter {
	if temperature <= 0 {
		temperature = defaultTemperature
	}

	return &OpenAICompleter{
		chat:        chat,
		logger:      logger,
		model:       model,
		temperature: temperature,
		baseURL:     baseURL,
	}
}

// Complete requests one chat completion and returns the assistant text.
func (c *OpenAICompleter) Complete(ctx context.Context, systemPrompt, input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", eris.New("input is required")
	}

	fields := logrus.Fields{"provider": "openai", "llm_model": c.model}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if prompt := strings.TrimSpace(systemPrompt); prompt != "" {
		messages = append(messages, openai.SystemMessage(prompt))
	}
	messages = append(messages, openai.UserMessage(input))

	completion, err := c.chat.New(ctx, openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(c.model),
		Messages:    messages,
		Temperature: openai.Float(c.temperature),
	})
	if err != nil {
		logError(c.logger, fields, err, "requesting chat completion")
		return "", eris.Wrap(err, "requesting chat completion")
	}

	if completion == nil || len(completion.Choices) == 0 {
		err := eris.Wrap(ErrEmptyResponse, "llm completion returned no choices")
		logError(c.logger, fields, err, "processing chat completion")
		return "", err
	}

	choice := completion.Choices[0]
	if reason := strings.TrimSpace(choice.FinishReason); strings.EqualFold(reason, "content_filter") {
		err := eris.Wrap(ErrBlocked, "content filter triggered")
		logError(c.logger, fields, err, "completion blocked")
		return "", err
	}

	if refusal := strings.TrimSpace(choice.Message.Refusal); refusal != "" {
		err := eris.Wrapf(ErrBlocked, "llm refused to generate content: %s", refusal)
		logError(c.logger, fields, err, "completion refused")
		return "", err
	}

	text := trimCodeFence(choice.Message.Content)
	if text == "" {
		logError(c.logger, fields, ErrEmptyResponse, "processing chat completion")
		return "", eris.Wrap(ErrEmptyResponse, "processing chat completion")
	}

	return text, nil
}

// BaseURL returns the configured base URL for outbound requests.
func (c *OpenAICompleter) BaseURL() string {
	return c.baseURL
}
