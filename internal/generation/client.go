package generation

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"wikigen/app/internal/llm"
)

// ErrGeneration wraps every failure to produce text for a model.
var ErrGeneration = eris.New("generation failed")

// Generator produces the output of a model for a source document.
type Generator interface {
	Generate(ctx context.Context, model Model, sourceText string) (string, error)
}

// PromptSource supplies per-model system prompt overrides. An empty string keeps the default.
type PromptSource interface {
	Prompt(model string) string
}

// Options configures the generation client.
type Options struct {
	Completer llm.Completer
	Prompts   PromptSource
	Logger    *logrus.Logger
}

// Client runs the four dashboard models against a completer.
type Client struct {
	completer llm.Completer
	prompts   map[Model]string
	logger    *logrus.Logger
}

var _ Generator = (*Client)(nil)

var defaultPrompts = map[Model]string{
	ModelEvaluate: "You are a senior QA analyst. Evaluate the user story you receive for clarity, completeness, " +
		"testability and acceptance criteria. Answer in markdown with a short verdict followed by concrete improvement suggestions.",
	ModelDocument: "You are a senior QA analyst. Write the test cases that cover the user story you receive. " +
		"Answer in markdown, one section per test case with preconditions, steps and expected results.",
	ModelCypress: "You are a test automation engineer. Turn the test cases you receive into a Cypress test suite written in JavaScript. " +
		"Answer in markdown containing the complete test file.",
	ModelPlaywright: "You are a test automation engineer. Turn the test cases you receive into a Playwright test suite written in TypeScript. " +
		"Answer in markdown containing the complete test file.",
}

// NewClient resolves the system prompt of every model once.
func NewClient(opts Options) (*Client, error) {
	if opts.Completer == nil {
		return nil, eris.New("llm completer is required")
	}

	prompts := make(map[Model]string, len(defaultPrompts))
	for _, model := range Models() {
		prompt := defaultPrompts[model]
		if opts.Prompts != nil {
			if override := strings.TrimSpace(opts.Prompts.Prompt(model.String())); override != "" {
				prompt = override
			}
		}
		prompts[model] = prompt
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}

	return &Client{completer: opts.Completer, prompts: prompts, logger: logger}, nil
}

// GenerateDoc writes test cases for a user story.
func (c *Client) GenerateDoc(ctx context.Context, sourceText string) (string, error) {
	return c.Generate(ctx, ModelDocument, sourceText)
}

// GenerateCypress writes a Cypress script for a test case document.
func (c *Client) GenerateCypress(ctx context.Context, sourceText string) (string, error) {
	return c.Generate(ctx, ModelCypress, sourceText)
}

// GeneratePlaywright writes a Playwright script for a test case document.
func (c *Client) GeneratePlaywright(ctx context.Context, sourceText string) (string, error) {
	return c.Generate(ctx, ModelPlaywright, sourceText)
}

// GenerateEvaluation reviews a user story.
func (c *Client) GenerateEvaluation(ctx context.Context, sourceText string) (string, error) {
	return c.Generate(ctx, ModelEvaluate, sourceText)
}

// Generate dispatches to the completer with the model's system prompt.
func (c *Client) Generate(ctx context.Context, model Model, sourceText string) (string, error) {
	prompt, ok := c.prompts[model]
	if !ok {
		return "", eris.Wrapf(ErrUnknownModel, "model %q", model)
	}

	if strings.TrimSpace(sourceText) == "" {
		return "", eris.Wrapf(ErrGeneration, "%s: source text is empty", model)
	}

	fields := logrus.Fields{"model": model.String(), "input_length": len(sourceText)}
	start := time.Now()

	text, err := c.completer.Complete(ctx, prompt, sourceText)
	if err != nil {
		c.logger.WithFields(fields).WithField("error", err.Error()).Error("generation failed")
		return "", eris.Wrapf(ErrGeneration, "%s: %v", model, err)
	}
	if strings.TrimSpace(text) == "" {
		c.logger.WithFields(fields).Error("generation returned empty text")
		return "", eris.Wrapf(ErrGeneration, "%s: empty output", model)
	}

	c.logger.WithFields(fields).WithFields(logrus.Fields{
		"output_length": len(text),
		"duration_ms":   time.Since(start).Milliseconds(),
	}).Info("generation completed")

	return text, nil
}

// SystemPrompt returns the resolved prompt for a model.
func (c *Client) SystemPrompt(model Model) string {
	return c.prompts[model]
}
