package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Env            string
	Port           string
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	OllamaURL      string
	EmbeddingModel string
	EmbeddingDim   int
	NCBIEmail      string
	NCBIAPIKey     string

	// Engine tunables; zero values keep the compiled defaults.
	CandidateK int
	TopDocs    int
	MaxChunks  int
}

func Load() *Config {
	return &Config{
		Env:            getEnv("ENV", "development"),
		Port:           getEnv("PORT", "9020"),
		DBHost:         getEnv("DB_HOST", "evidence-db"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "evidence_user"),
		DBPassword:     getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "evidence_password"),
		DBName:         getEnv("DB_NAME", "evidence_db"),
		OllamaURL:      getEnvWithAlt("EMBEDDER_URL", "OLLAMA_URL", "http://embedder:11434"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "paraphrase-multilingual-minilm"),
		EmbeddingDim:   getEnvInt("EMBEDDING_DIM", 384),
		NCBIEmail:      getEnv("NCBI_EMAIL", ""),
		NCBIAPIKey:     getSecret("NCBI_API_KEY", "NCBI_API_KEY_FILE", ""),
		CandidateK:     getEnvInt("RETRIEVAL_CANDIDATE_K", 0),
		TopDocs:        getEnvInt("RETRIEVAL_TOP_DOCS", 0),
		MaxChunks:      getEnvInt("RETRIEVAL_MAX_CHUNKS", 0),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return fallback
}

func getEnvWithAlt(key, altKey, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	if value, ok := os.LookupEnv(altKey); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
