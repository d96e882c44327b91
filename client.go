package nalssi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/mrchypark/nalssi/internal/worker"
	"github.com/mrchypark/nalssi/pkg/store"
	"github.com/mrchypark/nalssi/pkg/transport"
	"github.com/mrchypark/nalssi/pkg/transport/httpdriver"
)

const (
	// DefaultWaitTimeout bounds the blocking transport wait unless
	// overridden with WithWaitTimeout.
	DefaultWaitTimeout = 10 * time.Second

	defaultUserAgent       = "nalssi/1.0"
	defaultShutdownTimeout = 10 * time.Second
)

// Client fetches weather through the configured transport capability.
// Each lookup is independent and synchronous from the caller's
// perspective: one request in flight per invocation, no cross-call state
// beyond the optional cache.
type Client struct {
	cfg    Config
	logger log.Logger
	worker *worker.Manager
}

// New creates a Client. A nil logger disables logging.
func New(logger log.Logger, opts ...Option) (*Client, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	cfg := Config{
		Host:             DefaultHost,
		UserAgent:        defaultUserAgent,
		ChunkSize:        transport.DefaultChunkSize,
		WaitTimeout:      DefaultWaitTimeout,
		WorkerStrategy:   "pool",
		WorkerPoolSize:   2,
		WorkerQueueSize:  16,
		WorkerJobTimeout: 30 * time.Second,
		ShutdownTimeout:  defaultShutdownTimeout,
	}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if cfg.Transport == nil {
		cfg.Transport = httpdriver.New(nil, logger)
	}

	w, err := worker.NewManager(cfg.WorkerStrategy, logger, cfg.WorkerPoolSize, cfg.WorkerQueueSize, cfg.WorkerJobTimeout)
	if err != nil {
		return nil, err
	}

	return &Client{cfg: cfg, logger: logger, worker: w}, nil
}

// Close shuts down the background workers, waiting up to the configured
// shutdown timeout for in-flight jobs.
func (c *Client) Close() {
	c.worker.Shutdown(c.cfg.ShutdownTimeout)
}

// CheckWeather looks up current weather for a free-text location and
// returns the result as a JSON string. It never fails past this boundary:
// on success the string is the serialized weather response, on any failure
// it is `{"error": "<message>"}`. A missing credential short-circuits
// before any network step. Units other than "imperial" default to metric.
func (c *Client) CheckWeather(ctx context.Context, location, unit string) string {
	apiKey := c.credential()
	if apiKey == "" {
		return errorJSON(ErrMissingAPIKey.Error())
	}

	params := WeatherParams{Location: location, Unit: NormalizeUnit(unit)}
	resp, err := c.lookup(ctx, apiKey, params)
	if err != nil {
		return errorJSON(fmt.Sprintf("Failed to fetch weather: %v", err))
	}

	out, err := json.Marshal(resp)
	if err != nil {
		return errorJSON(fmt.Sprintf("Failed to serialize response: %v", err))
	}
	return string(out)
}

// CheckWeatherMany runs independent lookups concurrently. Results are
// positionally aligned with the input; each element is the same JSON shape
// CheckWeather produces, so per-lookup failures stay in their slot.
func (c *Client) CheckWeatherMany(ctx context.Context, lookups []WeatherParams) []string {
	results := make([]string, len(lookups))
	g, gCtx := errgroup.WithContext(ctx)
	for i, p := range lookups {
		i, p := i, p
		g.Go(func() error {
			results[i] = c.CheckWeather(gCtx, p.Location, string(p.Unit))
			return nil
		})
	}
	// Lookups report failures inside their result slot, never as errors.
	_ = g.Wait()
	return results
}

// Fetch performs one typed weather lookup, bypassing the JSON boundary of
// CheckWeather. Failures are *FetchError values.
func (c *Client) Fetch(ctx context.Context, params WeatherParams) (*WeatherResponse, error) {
	apiKey := c.credential()
	if apiKey == "" {
		return nil, &FetchError{Kind: KindConfig, Detail: ErrMissingAPIKey.Error(), Err: ErrMissingAPIKey}
	}
	params.Unit = NormalizeUnit(string(params.Unit))
	return c.lookup(ctx, apiKey, params)
}

func (c *Client) credential() string {
	if c.cfg.APIKey != "" {
		return c.cfg.APIKey
	}
	return os.Getenv(EnvAPIKey)
}

// lookup consults the optional cache before fetching. A fresh entry is
// served with no network step; a stale entry is served stale while a
// background refresh is scheduled, falling back to a synchronous fetch
// when the refresh cannot be queued.
func (c *Client) lookup(ctx context.Context, apiKey string, params WeatherParams) (*WeatherResponse, error) {
	if c.cfg.CacheStore == nil {
		return c.fetch(ctx, apiKey, params)
	}

	key := cacheKey(params)
	value, entry, err := c.cfg.CacheStore.Get(ctx, key)
	if err == nil && entry != nil {
		var cached WeatherResponse
		if uerr := json.Unmarshal(value, &cached); uerr == nil {
			if time.Since(entry.StoredAt) <= c.cfg.CacheFreshFor {
				level.Debug(c.logger).Log("msg", "cache hit", "key", key)
				return &cached, nil
			}
			if c.scheduleRefresh(apiKey, params, key) {
				level.Debug(c.logger).Log("msg", "serving stale entry, refresh scheduled", "key", key)
				return &cached, nil
			}
		} else {
			level.Warn(c.logger).Log("msg", "dropping undecodable cache entry", "key", key, "err", uerr)
		}
	} else if err != nil && !errors.Is(err, store.ErrNotFound) {
		level.Warn(c.logger).Log("msg", "cache get failed", "key", key, "err", err)
	}

	resp, err := c.fetch(ctx, apiKey, params)
	if err != nil {
		return nil, err
	}
	c.storeCached(ctx, key, params, resp)
	return resp, nil
}

func (c *Client) scheduleRefresh(apiKey string, params WeatherParams, key string) bool {
	return c.worker.Submit(func(jobCtx context.Context) {
		resp, err := c.fetch(jobCtx, apiKey, params)
		if err != nil {
			level.Warn(c.logger).Log("msg", "background refresh failed", "key", key, "err", err)
			return
		}
		c.storeCached(jobCtx, key, params, resp)
	})
}

func (c *Client) storeCached(ctx context.Context, key string, params WeatherParams, resp *WeatherResponse) {
	value, err := json.Marshal(resp)
	if err != nil {
		level.Warn(c.logger).Log("msg", "failed to marshal response for cache", "key", key, "err", err)
		return
	}
	entry := &store.Entry{
		Location: params.Location,
		Unit:     string(params.Unit),
		StoredAt: time.Now(),
	}
	if err := c.cfg.CacheStore.Set(ctx, key, value, entry); err != nil {
		level.Warn(c.logger).Log("msg", "cache set failed", "key", key, "err", err)
	}
}

// fetch performs one fresh pipeline pass and maps the payload. The raw
// body is handed to the archiver in the background when one is configured.
func (c *Client) fetch(ctx context.Context, apiKey string, params WeatherParams) (*WeatherResponse, error) {
	raw, err := c.fetchRaw(ctx, apiKey, params)
	if err != nil {
		return nil, err
	}

	if c.cfg.Archiver != nil {
		location, unit := params.Location, string(params.Unit)
		if !c.worker.Submit(func(jobCtx context.Context) {
			if _, err := c.cfg.Archiver.Put(jobCtx, location, unit, raw); err != nil {
				level.Warn(c.logger).Log("msg", "payload archive failed", "location", location, "err", err)
			}
		}) {
			level.Warn(c.logger).Log("msg", "archive job dropped", "location", location)
		}
	}

	return mapPayload(raw, params)
}

// fetchRaw drives the transport pipeline: build the request spec, submit,
// block on the readiness wait, unwrap the outcome, and drain the body in
// bounded chunks. Every handle acquired here is released on every exit
// path.
func (c *Client) fetchRaw(ctx context.Context, apiKey string, params WeatherParams) ([]byte, error) {
	logger := log.With(c.logger, "req_id", uuid.NewString())

	spec := transport.NewRequestSpec(c.cfg.Host, buildPathWithQuery(apiKey, params), []transport.Header{
		{Name: "User-Agent", Value: []byte(c.cfg.UserAgent)},
	})

	handle, err := c.cfg.Transport.Submit(ctx, spec)
	if err != nil {
		return nil, classify(err)
	}
	defer handle.Close()

	waitCtx := ctx
	if c.cfg.WaitTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, c.cfg.WaitTimeout)
		defer cancel()
	}

	resp, err := handle.Wait(waitCtx).Response()
	if err != nil {
		level.Debug(logger).Log("msg", "fetch failed", "location", params.Location, "err", err)
		return nil, classify(err)
	}
	defer resp.Body.Close()

	body, err := transport.ReadBody(resp.Body, c.cfg.ChunkSize)
	if err != nil {
		return nil, classify(err)
	}
	level.Debug(logger).Log("msg", "weather payload fetched", "status", resp.Status, "bytes", len(body))
	return body, nil
}

// buildPathWithQuery percent-encodes the location before concatenation, so
// request assembly downstream is pure and cannot fail.
func buildPathWithQuery(apiKey string, params WeatherParams) string {
	return fmt.Sprintf("%s?q=%s&appid=%s&units=%s",
		weatherPath, url.QueryEscape(params.Location), apiKey, params.Unit)
}

func cacheKey(params WeatherParams) string {
	return strconv.FormatUint(xxh3.HashString(params.Location+"|"+string(params.Unit)), 16)
}

func errorJSON(msg string) string {
	out, err := json.Marshal(map[string]string{"error": msg})
	if err != nil {
		return `{"error":"internal error"}`
	}
	return string(out)
}
