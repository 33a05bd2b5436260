package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// CredentialsKey is the key holding the bearer token in the credentials file.
const CredentialsKey = "Bearer token"

// BearerTokenEnv is consulted when the credentials file has no token.
const BearerTokenEnv = "TWITTER_BEARER_TOKEN"

// ErrMissingBearerToken is returned when no source supplies a token.
var ErrMissingBearerToken = errors.New("no bearer token in credentials file or environment")

// Credentials holds the search API secrets.
type Credentials struct {
	BearerToken string
}

// LoadCredentials reads the bearer token from the YAML credentials file, then
// from envFile (a dotenv file, optional), then from the process environment.
// A missing credentials file or env file is not an error on its own.
func LoadCredentials(credentialsFile, envFile string) (*Credentials, error) {
	if credentialsFile != "" {
		token, err := readCredentialsFile(credentialsFile)
		if err != nil {
			return nil, err
		}

		if token != "" {
			return &Credentials{BearerToken: token}, nil
		}
	}

	if envFile != "" {
		values, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read env file: %w", err)
		}

		if token := strings.TrimSpace(values[BearerTokenEnv]); token != "" {
			return &Credentials{BearerToken: token}, nil
		}
	}

	if token := strings.TrimSpace(os.Getenv(BearerTokenEnv)); token != "" {
		return &Credentials{BearerToken: token}, nil
	}

	return nil, ErrMissingBearerToken
}

func readCredentialsFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}

	if err != nil {
		return "", fmt.Errorf("failed to read credentials file: %w", err)
	}

	var values map[string]any
	if err := yaml.Unmarshal(data, &values); err != nil {
		return "", fmt.Errorf("failed to parse credentials file: %w", err)
	}

	token, _ := values[CredentialsKey].(string)

	return strings.TrimSpace(token), nil
}
