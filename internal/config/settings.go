package config

import (
	"bytes"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Log formats accepted in the settings file.
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

const defaultRedirectDelay = 2 * time.Second

// Settings is the immutable view of the YAML settings file.
type Settings struct {
	logFormat     string
	suffixes      suffixes
	redirectDelay time.Duration
	prompts       map[string]string
}

type suffixes struct {
	Document   string `yaml:"document"`
	Cypress    string `yaml:"cypress"`
	Playwright string `yaml:"playwright"`
	Evaluator  string `yaml:"evaluator"`
}

type settingsFile struct {
	LogFormat     string            `yaml:"logFormat"`
	Suffixes      suffixes          `yaml:"suffixes"`
	RedirectDelay *time.Duration    `yaml:"redirectDelay"`
	Prompts       map[string]string `yaml:"prompts"`
}

// LoadSettings reads and validates the settings file at path.
func LoadSettings(path string) (*Settings, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, eris.Wrap(ErrConfig, "settings file path is required")
	}

	raw, err := os.ReadFile(trimmed)
	if err != nil {
		return nil, eris.Wrapf(ErrConfig, "reading settings file %s: %v", trimmed, err)
	}

	return ParseSettings(raw)
}

// ParseSettings decodes settings from YAML and validates them.
func ParseSettings(raw []byte) (*Settings, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)

	var file settingsFile
	if err := decoder.Decode(&file); err != nil {
		return nil, eris.Wrapf(ErrConfig, "parsing settings file: %v", err)
	}

	settings := &Settings{
		logFormat:     strings.ToLower(strings.TrimSpace(file.LogFormat)),
		redirectDelay: defaultRedirectDelay,
		prompts:       make(map[string]string, len(file.Prompts)),
		suffixes: suffixes{
			Document:   strings.TrimSpace(file.Suffixes.Document),
			Cypress:    strings.TrimSpace(file.Suffixes.Cypress),
			Playwright: strings.TrimSpace(file.Suffixes.Playwright),
			Evaluator:  strings.TrimSpace(file.Suffixes.Evaluator),
		},
	}

	if file.RedirectDelay != nil {
		settings.redirectDelay = *file.RedirectDelay
	}

	for name, prompt := range file.Prompts {
		if trimmedPrompt := strings.TrimSpace(prompt); trimmedPrompt != "" {
			settings.prompts[strings.ToLower(strings.TrimSpace(name))] = trimmedPrompt
		}
	}

	if err := settings.validate(); err != nil {
		return nil, err
	}

	return settings, nil
}

// CheckConfigFile returns nil when the settings file exists, parses and carries every required value.
func CheckConfigFile(path string) error {
	_, err := LoadSettings(path)
	return err
}

func (s *Settings) validate() error {
	var problems []string

	switch s.logFormat {
	case LogFormatJSON, LogFormatText:
	case "":
		problems = append(problems, "logFormat is required")
	default:
		problems = append(problems, "logFormat must be json or text")
	}

	required := []struct {
		name  string
		value string
	}{
		{"suffixes.document", s.suffixes.Document},
		{"suffixes.cypress", s.suffixes.Cypress},
		{"suffixes.playwright", s.suffixes.Playwright},
		{"suffixes.evaluator", s.suffixes.Evaluator},
	}
	for _, field := range required {
		if field.value == "" {
			problems = append(problems, field.name+" is required")
		}
	}

	if s.suffixes.Document != "" {
		if s.suffixes.Cypress == s.suffixes.Document {
			problems = append(problems, "suffixes.cypress must differ from suffixes.document")
		}
		if s.suffixes.Playwright == s.suffixes.Document {
			problems = append(problems, "suffixes.playwright must differ from suffixes.document")
		}
	}

	if s.redirectDelay < 0 {
		problems = append(problems, "redirectDelay must not be negative")
	} else if s.redirectDelay%time.Second != 0 {
		problems = append(problems, "redirectDelay must be a whole number of seconds")
	}

	if len(problems) > 0 {
		return eris.Wrap(ErrConfig, "settings file: "+strings.Join(problems, "; "))
	}
	return nil
}

// LogFormat returns the configured log output format.
func (s *Settings) LogFormat() string { return s.logFormat }

// DocumentSuffix returns the suffix appended to test-case documentation pages.
func (s *Settings) DocumentSuffix() string { return s.suffixes.Document }

// CypressSuffix returns the suffix that replaces the document suffix for Cypress scripts.
func (s *Settings) CypressSuffix() string { return s.suffixes.Cypress }

// PlaywrightSuffix returns the suffix that replaces the document suffix for Playwright scripts.
func (s *Settings) PlaywrightSuffix() string { return s.suffixes.Playwright }

// EvaluatorSuffix returns the suffix appended to user-story evaluations.
func (s *Settings) EvaluatorSuffix() string { return s.suffixes.Evaluator }

// RedirectDelay is how long the success page waits before sending the browser to the wiki.
func (s *Settings) RedirectDelay() time.Duration { return s.redirectDelay }

// Prompt returns the system prompt override for a generation model, or "" when none is set.
func (s *Settings) Prompt(model string) string {
	return s.prompts[strings.ToLower(strings.TrimSpace(model))]
}
