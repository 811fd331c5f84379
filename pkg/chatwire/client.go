// Package chatwire is the top-level client for the platform: one
// persistent event stream plus the rate-limited HTTP surface, behind a
// single Client. Consumers register event handlers (the command
// framework registers for INTERACTION_CREATE) and issue calls through
// the REST client; everything else — heartbeats, resumes, reconnect
// backoff, rate-limit pacing — happens inside.
package chatwire

import (
	"context"
	"errors"
	"log/slog"

	"github.com/user/chatwire/pkg/gateway"
	"github.com/user/chatwire/pkg/rest"
)

// Config configures a Client. Token is required.
type Config struct {
	Token   string
	Intents gateway.Intents
	// Shard is the (index, count) stream partition for large
	// accounts. Zero value means unsharded.
	Shard [2]int
	// BaseURL overrides the HTTP API root for self-hosted deployments.
	BaseURL string
	// GatewayURL overrides stream URL discovery. When empty the URL
	// is fetched from the HTTP surface before each fresh connect.
	GatewayURL string
	Logger     *slog.Logger
	// REST overrides the HTTP dispatcher's tuning (retry policy,
	// in-flight cap, timeout). BaseURL and Logger above win over the
	// same fields here.
	REST *rest.Options
}

// Client binds one streaming session and one request dispatcher.
type Client struct {
	rest    *rest.Client
	session *gateway.Session
	log     *slog.Logger
}

// New creates a Client. It performs no network calls; call Run to
// connect the stream.
func New(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, errors.New("chatwire: token required")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	restOpts := rest.Options{}
	if cfg.REST != nil {
		restOpts = *cfg.REST
	}
	if cfg.BaseURL != "" {
		restOpts.BaseURL = cfg.BaseURL
	}
	restOpts.Logger = log
	restClient := rest.New(cfg.Token, &restOpts)

	resolve := func(ctx context.Context) (string, error) {
		if cfg.GatewayURL != "" {
			return cfg.GatewayURL, nil
		}
		info, err := restClient.GatewayInfo(ctx)
		if err != nil {
			return "", err
		}
		return info.URL, nil
	}

	session, err := gateway.NewSession(gateway.Config{
		Token:             cfg.Token,
		Intents:           cfg.Intents,
		Shard:             cfg.Shard,
		ResolveGatewayURL: resolve,
		Logger:            log,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		rest:    restClient,
		session: session,
		log:     log,
	}, nil
}

// Run connects the event stream and blocks until ctx is cancelled or
// the server rejects the session fatally.
func (c *Client) Run(ctx context.Context) error {
	return c.session.Run(ctx)
}

// REST returns the request dispatcher for calls the convenience
// methods below do not cover.
func (c *Client) REST() *rest.Client { return c.rest }

// Session returns the streaming session, for state inspection.
func (c *Client) Session() *gateway.Session { return c.session }

// On registers a handler for one event type.
func (c *Client) On(eventType string, h gateway.Handler) {
	c.session.Router().On(eventType, h)
}

// OnAny registers a handler for every event.
func (c *Client) OnAny(h gateway.Handler) {
	c.session.Router().OnAny(h)
}
