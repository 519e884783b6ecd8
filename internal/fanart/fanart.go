package fanart

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://webservice.fanart.tv/v3/music"

// APIKeyName is the secret name under which the fanart.tv personal API
// key is stored.
const APIKeyName = "fanarttv_api_key"

// requestsPerSecond is fanart.tv's documented rate limit.
const requestsPerSecond = 3

// SecretSource resolves named credentials for the client. GetSecret
// returns an empty string and no error when the named secret is not
// configured.
type SecretSource interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// Client looks up promotional artist imagery on fanart.tv by
// MusicBrainz artist ID.
//
// After the API responds with HTTP 429, the client disables itself and
// every later Lookup returns StatusPermanent without going to the
// network. The flag is scoped to the client instance and never resets.
type Client struct {
	client   *http.Client
	secrets  SecretSource
	limiter  *rate.Limiter
	logger   *slog.Logger
	baseURL  string
	disabled atomic.Bool
}

// New creates a client against the production fanart.tv endpoint.
func New(secrets SecretSource, logger *slog.Logger) *Client {
	return NewWithBaseURL(secrets, logger, defaultBaseURL)
}

// NewWithBaseURL creates a client against a custom base URL (for testing).
func NewWithBaseURL(secrets SecretSource, logger *slog.Logger, baseURL string) *Client {
	return &Client{
		client:  &http.Client{Timeout: 10 * time.Second},
		secrets: secrets,
		limiter: rate.NewLimiter(requestsPerSecond, 1),
		logger:  logger.With(slog.String("provider", "fanarttv")),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Lookup fetches the artist's background, logo, banner and thumbnail
// URLs for the given MusicBrainz artist ID.
//
// Every fault except cancellation is normalized into the returned
// Result; the error return is non-nil only when ctx was canceled or
// its deadline passed, in which case the Result is zero.
func (c *Client) Lookup(ctx context.Context, catalogID string) (Result, error) {
	if strings.TrimSpace(catalogID) == "" {
		c.logger.Debug("empty catalog id, nothing to look up")
		return notFound(), nil
	}

	if c.disabled.Load() {
		c.logger.Debug("lookups disabled for this session", slog.String("catalog_id", catalogID))
		return permanent("fanart.tv lookups disabled after rate limiting"), nil
	}

	apiKey, err := c.secrets.GetSecret(ctx, APIKeyName)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		return temporary(fmt.Sprintf("resolving API key: %v", err)), nil
	}
	if apiKey == "" {
		c.logger.Warn("no fanart.tv API key configured")
		return temporary("fanart.tv API key not configured"), nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		// Wait also refuses when the deadline would pass before a token
		// frees up; the caller may retry with more headroom.
		return temporary(fmt.Sprintf("rate limiter: %v", err)), nil
	}

	reqURL := fmt.Sprintf("%s/%s?api_key=%s", c.baseURL, catalogID, apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return temporary(fmt.Sprintf("creating request: %v", err)), nil
	}

	c.logger.Debug("requesting artist images", slog.String("catalog_id", catalogID))

	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		c.logger.Warn("fanart.tv request failed", slog.String("error", err.Error()))
		return temporary(fmt.Sprintf("fanart.tv request: %v", err)), nil
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusNotFound:
		c.logger.Debug("artist not found", slog.String("catalog_id", catalogID))
		return notFound(), nil
	case resp.StatusCode == http.StatusTooManyRequests:
		c.disabled.Store(true)
		c.logger.Warn("fanart.tv rate limited, disabling lookups for this session")
		return permanent("fanart.tv rate limited, lookups disabled for this session"), nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		c.logger.Warn("unexpected fanart.tv status", slog.Int("status", resp.StatusCode))
		return temporary(fmt.Sprintf("fanart.tv returned HTTP %d", resp.StatusCode)), nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		return temporary(fmt.Sprintf("reading response: %v", err)), nil
	}

	var payload response
	if err := json.Unmarshal(body, &payload); err != nil {
		// An unparseable success body counts as absence of data.
		c.logger.Debug("unparseable fanart.tv response", slog.String("error", err.Error()))
		return notFound(), nil
	}

	images := project(&payload)
	if images.Empty() {
		c.logger.Debug("no usable images", slog.String("catalog_id", catalogID))
		return notFound(), nil
	}

	c.logger.Info("artist images found",
		slog.String("catalog_id", catalogID),
		slog.Bool("background", images.Background != ""),
		slog.Bool("logo", images.Logo != ""),
		slog.Bool("banner", images.Banner != ""),
		slog.Bool("thumb", images.Thumb != ""))
	return found(images), nil
}

// project selects one URL per image kind from the wire payload. The
// logo prefers the HD list over the plain one; each kind's sources are
// tried in priority order.
func project(resp *response) ArtistImages {
	return ArtistImages{
		Background: firstURL(resp.ArtistBackground),
		Logo:       firstURL(resp.HDMusicLogo, resp.MusicLogo),
		Banner:     firstURL(resp.MusicBanner),
		Thumb:      firstURL(resp.ArtistThumb),
	}
}

// firstURL returns the first entry of the first non-empty list.
func firstURL(lists ...[]wireImage) string {
	for _, list := range lists {
		if len(list) > 0 {
			return list[0].URL
		}
	}
	return ""
}
