// Package dataverse is a client for the native REST API of a Dataverse
// research data repository.
package dataverse

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Client talks to one Dataverse server.
type Client struct {
	baseURL       string
	token         string
	readOnly      bool
	contactDomain string
	affiliation   string
	uploadDelay   time.Duration
	http          *http.Client
	log           *slog.Logger
}

// New creates a client from cfg.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		token:         cfg.APIToken,
		readOnly:      cfg.ReadOnly,
		contactDomain: cfg.ContactDomain,
		affiliation:   cfg.Affiliation,
		uploadDelay:   cfg.UploadDelay,
		http:          cfg.HTTPClient,
		log:           cfg.Logger,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 60 * time.Second}
	}
	if c.log == nil {
		c.log = slog.New(slog.DiscardHandler)
	}
	return c, nil
}

// String describes the client without revealing the token.
func (c *Client) String() string {
	return "dataverse.Client(" + c.baseURL + ")"
}

// ReadOnly reports whether modifying requests are skipped.
func (c *Client) ReadOnly() bool {
	return c.readOnly
}
