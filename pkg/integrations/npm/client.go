package npm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/matzehuels/bumper/pkg/buildinfo"
	"github.com/matzehuels/bumper/pkg/cache"
	bumperrors "github.com/matzehuels/bumper/pkg/errors"
	"github.com/matzehuels/bumper/pkg/integrations"
)

// DefaultRegistry is the public npm registry.
const DefaultRegistry = "https://registry.npmjs.com"

// Client looks up package versions on an npm-compatible registry.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a client for DefaultRegistry that caches responses in c
// for ttl.
func NewClient(c cache.Cache, ttl time.Duration) *Client {
	return &Client{
		Client: integrations.NewClient(c, "npm:", ttl, map[string]string{
			"Accept":     "application/json",
			"User-Agent": buildinfo.UserAgent(),
		}),
		baseURL: DefaultRegistry,
	}
}

// WithRegistry points the client at another registry (a mirror or a local
// proxy) and returns it. Trailing slashes are dropped; empty keeps the current one.
func (c *Client) WithRegistry(baseURL string) *Client {
	if baseURL = strings.TrimRight(baseURL, "/"); baseURL != "" {
		c.baseURL = baseURL
	}
	return c
}

// Registry returns the registry base URL.
func (c *Client) Registry() string { return c.baseURL }

// FetchLatest returns the version tagged "latest" for pkg. Every failure is a
// REGISTRY_ERROR; a missing package additionally wraps
// [integrations.ErrNotFound].
func (c *Client) FetchLatest(ctx context.Context, pkg string, refresh bool) (string, error) {
	if err := bumperrors.ValidatePackageName(pkg); err != nil {
		return "", bumperrors.Wrap(bumperrors.ErrCodeRegistry, err, "npm package %q", pkg)
	}

	var latest string
	err := c.Cached(ctx, c.baseURL+"|"+pkg, refresh, &latest, func() error {
		v, err := c.fetch(ctx, pkg)
		latest = v
		return err
	})
	if err != nil {
		return "", err
	}
	return latest, nil
}

func (c *Client) fetch(ctx context.Context, pkg string) (string, error) {
	var data registryResponse
	if err := c.Get(ctx, c.packageURL(pkg), &data); err != nil {
		switch {
		case ctx.Err() != nil:
			return "", ctx.Err()
		case errors.Is(err, integrations.ErrNotFound):
			return "", bumperrors.Wrap(bumperrors.ErrCodeRegistry, err, "npm package %s", pkg)
		case errors.Is(err, integrations.ErrNetwork):
			return "", bumperrors.Wrap(bumperrors.ErrCodeRegistry, err, "fetch %s", pkg)
		default:
			return "", bumperrors.Wrap(bumperrors.ErrCodeRegistry, err, "decode %s", pkg)
		}
	}

	if data.DistTags.Latest == "" {
		return "", bumperrors.New(bumperrors.ErrCodeRegistry, "npm package %s has no latest dist-tag", pkg)
	}
	return data.DistTags.Latest, nil
}

// packageURL escapes the slash of scoped names (@scope/name) the way the
// npm CLI does.
func (c *Client) packageURL(pkg string) string {
	return c.baseURL + "/" + strings.Replace(pkg, "/", "%2F", 1)
}

type registryResponse struct {
	Name     string   `json:"name"`
	DistTags distTags `json:"dist-tags"`
}

type distTags struct {
	Latest string `json:"latest"`
}
