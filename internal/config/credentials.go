package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Credential errors. All of them are fatal for the web command.
var (
	ErrCredentialsNotFound = errors.New("credentials file not found")
	ErrInvalidCredentials  = errors.New("credentials file is not valid JSON")
	ErrMissingAPIKey       = errors.New("GEMINI_API_KEY is missing or still the placeholder")
)

// Credentials holds secrets read from the credentials file.
type Credentials struct {
	GeminiAPIKey string `json:"GEMINI_API_KEY"`
}

// LoadCredentials reads and checks the JSON credentials file at path.
func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrCredentialsNotFound, path)
		}
		return nil, fmt.Errorf("failed to read credentials file %s: %w", path, err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidCredentials, path, err)
	}

	creds.GeminiAPIKey = strings.TrimSpace(creds.GeminiAPIKey)
	if creds.GeminiAPIKey == "" || creds.GeminiAPIKey == PlaceholderAPIKey {
		return nil, fmt.Errorf("%w: %s", ErrMissingAPIKey, path)
	}

	return &creds, nil
}
