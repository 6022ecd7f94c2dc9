package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Credentials are kept as a small JSON file mapping provider id to the
// vault-encrypted key. The file carries only ciphertext; the seed lives
// next to it under 0600.
func readCredential(path, provider string) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read credentials: %w", err)
	}

	var creds map[string]string
	if err := json.Unmarshal(data, &creds); err != nil {
		return "", fmt.Errorf("credentials file is corrupt: %w", err)
	}
	return creds[provider], nil
}

func writeCredential(path, provider, encrypted string) error {
	creds := map[string]string{}
	if data, err := os.ReadFile(path); err == nil {
		// A corrupt file is replaced rather than failing the write.
		_ = json.Unmarshal(data, &creds)
	}
	creds[provider] = encrypted

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return nil
}
