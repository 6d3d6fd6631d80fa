//-------------------------------------------------------------------------
//
// G-RAG Server
//
// Portions copyright (c) 2026, the G-RAG Server authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Environment variable names for API keys, by provider.
var apiKeyEnvVars = map[string]string{
	"openai": "OPENAI_API_KEY",
}

// Default API key file names (relative to home directory), by provider.
var apiKeyDefaultFiles = map[string]string{
	"openai": ".openai-api-key",
}

// LoadAPIKey loads the API key for a provider with the following priority:
//  1. Configured file path (if specified)
//  2. Environment variable
//  3. Default file location (~/.provider-api-key)
//
// Providers that need no key (e.g. a local Ollama instance) return an
// empty key without error.
func LoadAPIKey(provider, configPath string) (string, error) {
	envVar, needsKey := apiKeyEnvVars[provider]
	if !needsKey {
		return "", nil
	}

	// Priority 1: Configured file path
	if configPath != "" {
		return readKeyFile(expandPath(configPath), provider)
	}

	// Priority 2: Environment variable
	if key := os.Getenv(envVar); key != "" {
		return key, nil
	}

	// Priority 3: Default file location
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	path := filepath.Join(homeDir, apiKeyDefaultFiles[provider])

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", fmt.Errorf(
			"%s API key not found: set %s environment variable or create %s",
			provider, envVar, path)
	}

	return readKeyFile(path, provider)
}

// readKeyFile reads an API key from a file.
func readKeyFile(path, provider string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s API key: %w", provider, err)
	}

	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", fmt.Errorf("%s API key file is empty: %s", provider, path)
	}

	return key, nil
}
