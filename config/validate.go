package config

import (
	"fmt"
)

func (c *Config) validate() error {
	switch c.StoreDriver {
	case "mongo":
		if c.Mongo.URI == "" && !c.IsDevelopment() {
			return fmt.Errorf("MONGO_URI is required outside development")
		}
	case "memory":
	default:
		return fmt.Errorf("STORE_DRIVER must be mongo or memory, got %q", c.StoreDriver)
	}

	switch c.Auth.Provider {
	case "firebase":
	case "jwt":
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when AUTH_PROVIDER=jwt")
		}
	default:
		return fmt.Errorf("AUTH_PROVIDER must be firebase or jwt, got %q", c.Auth.Provider)
	}

	switch c.Storage.Provider {
	case "local":
	case "firebase":
		if c.Firebase.StorageBucket == "" {
			return fmt.Errorf("FIREBASE_STORAGE_BUCKET is required when STORAGE_PROVIDER=firebase")
		}
	default:
		return fmt.Errorf("STORAGE_PROVIDER must be firebase or local, got %q", c.Storage.Provider)
	}

	if c.Ledger.CommissionRate < 0 {
		return fmt.Errorf("COMMISSION_RATE must not be negative")
	}
	if c.Ledger.RetryMaxAttempts < 1 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}

// NeedsFirebase reports whether any component uses the Firebase Admin SDK.
func (c *Config) NeedsFirebase() bool {
	return c.Auth.Provider == "firebase" || c.Storage.Provider == "firebase" ||
		c.Firebase.CredentialsBase64 != "" || c.Firebase.CredentialsFile != ""
}
