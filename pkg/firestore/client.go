package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/dromero-dev/clubfunds-backend/pkg/config"
	"github.com/dromero-dev/clubfunds-backend/pkg/logger"
)

var (
	errProjectIDRequired    = errors.New("gcp project id is required")
	errClientNotInitialized = errors.New("firestore client not initialized")
)

// Client wraps the Firestore connection used as the record store.
type Client struct {
	client    *firestore.Client
	projectID string
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(context.Context) error
}

// NewClient creates a Firestore client for the configured project.
func NewClient(ctx context.Context, cfg config.FirestoreConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(cfg.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}

	fsClient, err := firestore.NewClient(ctx, projectID, clientOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "firestore client initialized")
	}

	return &Client{client: fsClient, projectID: projectID}, nil
}

func clientOptions(cfg config.FirestoreConfig) []option.ClientOption {
	var opts []option.ClientOption
	if creds := strings.TrimSpace(cfg.CredentialsJSON); creds != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	} else if file := strings.TrimSpace(cfg.CredentialsFile); file != "" {
		opts = append(opts, option.WithCredentialsFile(file))
	}
	return opts
}

// Raw returns the underlying Firestore client.
func (c *Client) Raw() *firestore.Client {
	if c == nil {
		return nil
	}
	return c.client
}

// Ping verifies the connection by listing at most one top-level document.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errClientNotInitialized
	}
	iter := c.client.Collection("organizations").Limit(1).Documents(ctx)
	defer iter.Stop()
	if _, err := iter.Next(); err != nil && err != iterator.Done {
		return fmt.Errorf("ping firestore: %w", err)
	}
	return nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
