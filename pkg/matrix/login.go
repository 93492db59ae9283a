// Copyright 2024-2026 Aiku AI

package matrix

import (
	"context"
	"fmt"

	"maunium.net/go/mautrix"
)

// Login performs a password login against the homeserver and returns the
// resulting session credentials. It is a pure function of its arguments: it
// uses a throwaway client and leaves persisting the result to the caller.
// Password login cannot be retried blindly, so callers treat an error here
// as fatal.
func Login(ctx context.Context, homeserverURL, user, password, deviceName string) (*Credentials, error) {
	client, err := mautrix.NewClient(homeserverURL, "", "")
	if err != nil {
		return nil, fmt.Errorf("failed to create login client: %w", err)
	}
	resp, err := client.Login(ctx, &mautrix.ReqLogin{
		Type: mautrix.AuthTypePassword,
		Identifier: mautrix.UserIdentifier{
			Type: mautrix.IdentifierTypeUser,
			User: user,
		},
		Password:                 password,
		InitialDeviceDisplayName: deviceName,
	})
	if err != nil {
		return nil, fmt.Errorf("matrix login failed: %w", err)
	}
	return &Credentials{
		UserID:      resp.UserID,
		AccessToken: resp.AccessToken,
		DeviceID:    resp.DeviceID,
	}, nil
}
