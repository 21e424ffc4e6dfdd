package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// ErrConfig marks configuration problems that must halt start-up.
var ErrConfig = eris.New("invalid configuration")

// Wiki backends.
const (
	BackendGitLab = "gitlab"
	BackendLocal  = "local"
)

// Generation providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds runtime configuration values read from the environment.
type Config struct {
	ServerPort        int
	LogLevel          string
	Environment       string
	SentryDSN         string
	ConfigFile        string
	WikiBackend       string
	GitLabURL         string
	GitLabToken       string
	DBPath            string
	PublicURL         string
	LLMProvider       string
	LLMEndpoint       string
	LLMAPIKey         string
	LLMModel          string
	WikiTimeout       time.Duration
	GenerationTimeout time.Duration
	ShutdownGrace     time.Duration
}

const (
	defaultServerPort        = 8080
	defaultLogLevel          = "info"
	defaultEnvironment       = "development"
	defaultConfigFile        = "./config.yaml"
	defaultWikiBackend       = BackendGitLab
	defaultGitLabURL         = "https://gitlab.com"
	defaultDBPath            = "./data/wikigen.db"
	defaultLLMProvider       = ProviderOpenAI
	defaultWikiTimeout       = 15 * time.Second
	defaultGenerationTimeout = 3 * time.Minute
	defaultShutdownGrace     = 10 * time.Second
)

// Load reads configuration values from environment variables, applying defaults where necessary.
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:    getEnv("LOG_LEVEL", defaultLogLevel),
		Environment: getEnv("ENV", defaultEnvironment),
		SentryDSN:   os.Getenv("SENTRY_DSN"),
		ConfigFile:  getEnv("CONFIG_FILE", defaultConfigFile),
		WikiBackend: strings.ToLower(getEnv("WIKI_BACKEND", defaultWikiBackend)),
		GitLabURL:   getEnv("GITLAB_URL", defaultGitLabURL),
		GitLabToken: os.Getenv("GITLAB_TOKEN"),
		DBPath:      getEnv("DB_PATH", defaultDBPath),
		PublicURL:   strings.TrimSuffix(os.Getenv("PUBLIC_URL"), "/"),
		LLMProvider: strings.ToLower(getEnv("LLM_PROVIDER", defaultLLMProvider)),
		LLMEndpoint: os.Getenv("LLM_ENDPOINT"),
		LLMAPIKey:   os.Getenv("LLM_API_KEY"),
		LLMModel:    os.Getenv("LLM_MODEL"),
	}

	// PORT wins over SERVER_PORT so the binary behaves on platforms that inject it.
	portValue := getEnv("PORT", getEnv("SERVER_PORT", strconv.Itoa(defaultServerPort)))
	port, err := strconv.Atoi(portValue)
	if err != nil || port <= 0 {
		return nil, eris.Wrapf(ErrConfig, "invalid SERVER_PORT value: %s", portValue)
	}
	cfg.ServerPort = port

	durations := []struct {
		key      string
		fallback time.Duration
		target   *time.Duration
	}{
		{"WIKI_TIMEOUT", defaultWikiTimeout, &cfg.WikiTimeout},
		{"GENERATION_TIMEOUT", defaultGenerationTimeout, &cfg.GenerationTimeout},
		{"SHUTDOWN_GRACE", defaultShutdownGrace, &cfg.ShutdownGrace},
	}
	for _, d := range durations {
		value, err := getDuration(d.key, d.fallback)
		if err != nil {
			return nil, err
		}
		*d.target = value
	}

	return cfg, nil
}

// CheckEnvironment reports every variable the selected backend and provider need but did not receive.
func (c *Config) CheckEnvironment() error {
	if c == nil {
		return eris.Wrap(ErrConfig, "configuration is nil")
	}

	var missing []string
	var problems []string

	switch c.WikiBackend {
	case BackendGitLab:
		if strings.TrimSpace(c.GitLabToken) == "" {
			missing = append(missing, "GITLAB_TOKEN")
		}
		if strings.TrimSpace(c.GitLabURL) == "" {
			missing = append(missing, "GITLAB_URL")
		}
	case BackendLocal:
		if strings.TrimSpace(c.DBPath) == "" {
			missing = append(missing, "DB_PATH")
		}
	default:
		problems = append(problems, "unsupported WIKI_BACKEND "+strconv.Quote(c.WikiBackend))
	}

	switch c.LLMProvider {
	case ProviderOpenAI, ProviderGemini:
	default:
		problems = append(problems, "unsupported LLM_PROVIDER "+strconv.Quote(c.LLMProvider))
	}

	if strings.TrimSpace(c.LLMAPIKey) == "" {
		missing = append(missing, "LLM_API_KEY")
	}
	if strings.TrimSpace(c.LLMModel) == "" {
		missing = append(missing, "LLM_MODEL")
	}

	if len(missing) > 0 {
		problems = append(problems, "missing required environment variables: "+strings.Join(missing, ", "))
	}
	if len(problems) > 0 {
		return eris.Wrap(ErrConfig, strings.Join(problems, "; "))
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}

	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return 0, eris.Wrapf(ErrConfig, "invalid %s value: %s", key, raw)
	}
	return value, nil
}
