// Package firebase connects to Firebase Authentication for the optional
// "sign in with Firebase" login.
package firebase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// NewAuthClient builds an auth client from a service account file. The
// returned client verifies the ID tokens posted to the login endpoint.
func NewAuthClient(ctx context.Context, credentialsPath string) (*auth.Client, error) {
	if credentialsPath == "" {
		return nil, errors.New("firebase: credentials path not provided")
	}
	if _, err := os.Stat(credentialsPath); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("firebase: credentials file not found at %s", credentialsPath)
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("firebase: initializing app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: getting auth client: %w", err)
	}

	slog.Info("firebase auth client initialized", "credentials", credentialsPath)
	return client, nil
}
