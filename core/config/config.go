// Package config loads the collaborator credentials the library's bundled
// clients need. Callers embedding their own clients can skip it entirely.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	GroqAPIKey     string
	GroqModel      string
	DeepgramAPIKey string

	// LogDBPath is the sqlite file for the interaction log. Empty disables
	// recording.
	LogDBPath string

	// CalDAVEndpoint is the secondary provider's CalDAV root.
	CalDAVEndpoint string
}

// Load reads configuration from the environment. A .env file is loaded
// first when present; a missing file is not an error.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		GroqAPIKey:     os.Getenv("GROQ_API_KEY"),
		GroqModel:      os.Getenv("GROQ_MODEL"),
		DeepgramAPIKey: os.Getenv("DEEPGRAM_API_KEY"),
		LogDBPath:      os.Getenv("ARIA_LOG_DB"),
		CalDAVEndpoint: os.Getenv("ARIA_CALDAV_ENDPOINT"),
	}
}
