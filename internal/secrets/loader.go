// Package secrets resolves credential material (API keys) from files or
// inline configuration, keeping raw secrets out of argv and the config tree.
package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Source describes where a secret comes from.
type Source struct {
	// Name labels the secret in error messages ("gemini api key").
	Name string
	// Value is an inline secret from configuration or flags.
	Value string
	// File points to a file holding the secret. A set File wins over Value.
	File string
}

// Load resolves and trims the secret. It fails when neither File nor Value
// yields a non-empty value, naming the source so the operator knows which
// setting is missing.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	if file := strings.TrimSpace(src.File); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}

		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("%s file %q holds no value", name, file)
		}
		return secret, nil
	}

	secret := strings.TrimSpace(src.Value)
	if secret == "" {
		return "", fmt.Errorf("%s is not configured", name)
	}

	return secret, nil
}
