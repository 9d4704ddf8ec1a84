package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Models maps pipeline roles to model names. The planner favors small
// instruction-following models, the coder a code model, the fixer a cheap
// general model.
type Models struct {
	Planner string
	Coder   string
	Fixer   string
	Default string
}

type Config struct {
	// LLM backend: "ollama" (default) or "gemini".
	LLMBackend string
	OllamaHost string
	Models     Models

	LLMTimeout    time.Duration
	LLMMaxRetries int

	WeaviateScheme string
	WeaviateHost   string

	// Sandbox settings.
	PythonBin   string
	ExecTimeout time.Duration

	DataDir     string
	StatesDir   string
	GamesDir    string
	SeedDir     string
	FinetuneDir string
	LogFile     string
}

// Load reads configuration from the environment. Every value has a working
// default so a bare process starts against local Ollama and Weaviate.
func Load() Config {
	dataDir := envOr("GAMEWRIGHT_DATA_DIR", "data")

	return Config{
		LLMBackend: envOr("LLM_BACKEND", "ollama"),
		OllamaHost: envOr("OLLAMA_HOST", "http://localhost:11434"),
		Models: Models{
			Planner: envOr("PLANNER_MODEL", "phi3:mini"),
			Coder:   envOr("CODER_MODEL", "codellama:7b-instruct"),
			Fixer:   envOr("FIXER_MODEL", "qwen2.5:3b-instruct"),
			Default: envOr("DEFAULT_MODEL", "phi3:mini"),
		},

		LLMTimeout:    envDuration("LLM_TIMEOUT", 120*time.Second),
		LLMMaxRetries: envInt("LLM_MAX_RETRIES", 3),

		WeaviateScheme: envOr("WEAVIATE_SCHEME", "http"),
		WeaviateHost:   envOr("WEAVIATE_HOST", "localhost:8080"),

		PythonBin:   envOr("PYTHON_BIN", "python3"),
		ExecTimeout: envDuration("EXEC_TIMEOUT", 30*time.Second),

		DataDir:     dataDir,
		StatesDir:   envOr("GAMEWRIGHT_STATES_DIR", filepath.Join(dataDir, "states")),
		GamesDir:    envOr("GAMEWRIGHT_GAMES_DIR", filepath.Join("games", "generated")),
		SeedDir:     envOr("GAMEWRIGHT_SEED_DIR", filepath.Join(dataDir, "knowledge")),
		FinetuneDir: envOr("GAMEWRIGHT_FINETUNE_DIR", filepath.Join(dataDir, "finetune")),
		LogFile:     envOr("GAMEWRIGHT_LOG_FILE", "gamewright.log"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return fallback
}
