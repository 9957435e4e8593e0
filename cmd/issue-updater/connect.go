package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nhle/issue-updater/internal/credential"
	"github.com/nhle/issue-updater/internal/model"
	"github.com/nhle/issue-updater/internal/tracker"
	"github.com/nhle/issue-updater/internal/tracker/jira"
	"github.com/nhle/issue-updater/internal/tracker/soap"
)

// connectorFor returns the connector for the configured transport.
func connectorFor(tc model.TrackerConfig) (tracker.Connector, error) {
	timeout := time.Duration(tc.TimeoutSec) * time.Second
	switch tc.Transport {
	case model.TransportREST, "":
		return jira.Connector(timeout), nil
	case model.TransportSOAP:
		return soap.Connector(timeout), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", tc.Transport)
	}
}

// resolvePassword fills in the password from the keyring when the
// configuration and environment leave it empty.
func resolvePassword(tc *model.TrackerConfig, logger *slog.Logger) {
	if tc.Password != "" {
		return
	}

	key := credential.Key(tracker.BaseURL(tc.URL), tc.Username)
	secret, err := credential.Get(key)
	switch {
	case err == nil:
		tc.Password = secret
		logger.Debug("password loaded from keyring", "key", key)
	case errors.Is(err, credential.ErrNotFound):
		logger.Debug("no password in keyring", "key", key)
	default:
		logger.Warn("could not read keyring", "key", key, "error", err)
	}
}

// testConnection opens and discards a session. It backs the init wizard.
func testConnection(ctx context.Context, tc model.TrackerConfig) error {
	connector, err := connectorFor(tc)
	if err != nil {
		return err
	}
	_, err = connector.Connect(ctx, tc.URL, tc.Username, tc.Password)
	return err
}
