package config

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// InitFirebase initializes the Firebase Admin SDK
func InitFirebase(ctx context.Context, cfg FirebaseConfig, logger *logrus.Logger) (*firebase.App, error) {
	fbConfig := &firebase.Config{
		ProjectID:     cfg.ProjectID,
		StorageBucket: cfg.StorageBucket,
	}

	var opt option.ClientOption
	switch {
	// Check for base64 encoded credentials first
	case cfg.CredentialsBase64 != "":
		logger.Info("Using Firebase credentials from base64 environment variable")
		decoded, err := base64.StdEncoding.DecodeString(cfg.CredentialsBase64)
		if err != nil {
			return nil, fmt.Errorf("error decoding base64 credentials: %w", err)
		}
		opt = option.WithCredentialsJSON(decoded)
	case cfg.CredentialsFile != "":
		if _, err := os.Stat(cfg.CredentialsFile); err != nil {
			return nil, fmt.Errorf("firebase service account file not found: %w", err)
		}
		logger.Infof("Using Firebase credentials file: %s", cfg.CredentialsFile)
		opt = option.WithCredentialsFile(cfg.CredentialsFile)
	default:
		// Application default credentials
		app, err := firebase.NewApp(ctx, fbConfig)
		if err != nil {
			return nil, fmt.Errorf("error initializing firebase app: %w", err)
		}
		return app, nil
	}

	app, err := firebase.NewApp(ctx, fbConfig, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}
	return app, nil
}
