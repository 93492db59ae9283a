// Copyright 2024-2026 Aiku AI

package matrix

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"maunium.net/go/mautrix/id"
)

// Credentials is the persisted Matrix session bundle. It is created once by
// interactive password login, written to disk, and reused on every
// subsequent start. The bridge never modifies it afterwards; only an
// external action (deleting the file, invalidating the token server-side)
// forces a new login.
type Credentials struct {
	UserID      id.UserID   `json:"user_id"`
	AccessToken string      `json:"access_token"`
	DeviceID    id.DeviceID `json:"device_id"`
}

// CredentialStore persists a single credential bundle as a JSON file.
type CredentialStore struct {
	path string
}

// NewCredentialStore returns a store backed by the file at path.
func NewCredentialStore(path string) *CredentialStore {
	return &CredentialStore{path: path}
}

// Load reads the stored credentials. It returns (nil, nil) when no bundle
// has been persisted yet.
func (s *CredentialStore) Load() (*Credentials, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	if creds.UserID == "" || creds.AccessToken == "" {
		return nil, fmt.Errorf("credential file %s is incomplete", s.path)
	}
	return &creds, nil
}

// Save writes the credential bundle. The file contains an access token, so
// it is not group or world readable.
func (s *CredentialStore) Save(creds *Credentials) error {
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return nil
}
