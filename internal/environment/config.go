package environment

import (
	"os"

	"github.com/joho/godotenv"
)

type EnvConfig struct {
	NatsURL     string
	NatsSubject string
	ArtifactDir string
}

// ReadEnvConfig loads optional harness defaults from a .env file and the
// process environment. CLI flags take precedence over everything read here.
func ReadEnvConfig() *EnvConfig {
	// A missing .env file is fine; the environment alone may carry the values.
	_ = godotenv.Load()

	return &EnvConfig{
		NatsURL:     os.Getenv("HARNESS_NATS_URL"),
		NatsSubject: os.Getenv("HARNESS_NATS_SUBJECT"),
		ArtifactDir: os.Getenv("HARNESS_ARTIFACT_DIR"),
	}
}
