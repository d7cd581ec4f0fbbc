package proxy

import (
	"context"
	"fmt"
	nethttp "net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/driftsync/syncshell/internal/config"
	"github.com/driftsync/syncshell/internal/constants"
)

// DefaultCheckURL is probed when the preferences carry no connectivity URL.
const DefaultCheckURL = "https://www.google.com/generate_204"

// Result is the outcome of a connectivity check.
type Result struct {
	URL        string
	StatusCode int
	Latency    time.Duration
	Attempts   int
	Err        error
}

// OK reports whether the probe got a non-server-error response.
func (r Result) OK() bool {
	return r.Err == nil && r.StatusCode > 0 && r.StatusCode < 500
}

// Summary is the one-line message shown under the proxy settings.
func (r Result) Summary() string {
	if r.OK() {
		return fmt.Sprintf("Connected (%s)", r.Latency.Round(time.Millisecond))
	}
	if r.Err != nil {
		return "Connection failed: " + r.Err.Error()
	}
	return fmt.Sprintf("Connection failed: HTTP %d", r.StatusCode)
}

// ConnectivityChecker probes a URL through the proxy under test.
type ConnectivityChecker struct {
	URL      string
	Retries  int
	Timeout  time.Duration
	RetryMin time.Duration
	RetryMax time.Duration
	Logger   zerolog.Logger

	// NewClient builds the client under test; defaults to proxy.NewClient.
	NewClient func(config.ProxyPrefs, zerolog.Logger) (*nethttp.Client, error)
}

// NewConnectivityChecker returns a checker probing url, or DefaultCheckURL.
func NewConnectivityChecker(url string, logger zerolog.Logger) *ConnectivityChecker {
	if url == "" {
		url = DefaultCheckURL
	}
	return &ConnectivityChecker{
		URL:      url,
		Retries:  constants.ConnectivityCheckRetries,
		Timeout:  constants.ConnectivityCheckTimeout,
		RetryMin: 500 * time.Millisecond,
		RetryMax: 4 * time.Second,
		Logger:   logger,
	}
}

// Check sends a HEAD request through a client built from p.
func (c *ConnectivityChecker) Check(ctx context.Context, p config.ProxyPrefs) Result {
	res := Result{URL: c.URL}

	newClient := c.NewClient
	if newClient == nil {
		newClient = NewClient
	}
	httpClient, err := newClient(p, c.Logger)
	if err != nil {
		res.Err = err
		return res
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = httpClient
	rc.RetryMax = c.Retries
	rc.RetryWaitMin = c.RetryMin
	rc.RetryWaitMax = c.RetryMax
	rc.Logger = leveledLogger{c.Logger}
	rc.RequestLogHook = func(_ retryablehttp.Logger, _ *nethttp.Request, attempt int) {
		res.Attempts = attempt + 1
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, nethttp.MethodHead, c.URL, nil)
	if err != nil {
		res.Err = fmt.Errorf("invalid check URL: %w", err)
		return res
	}

	start := time.Now()
	resp, err := rc.Do(req)
	res.Latency = time.Since(start)
	if err != nil {
		res.Err = err
		return res
	}
	defer resp.Body.Close()

	res.StatusCode = resp.StatusCode
	c.Logger.Debug().
		Str("url", c.URL).
		Int("status", resp.StatusCode).
		Dur("latency", res.Latency).
		Msg("Proxy connectivity check")
	return res
}

// leveledLogger adapts zerolog to retryablehttp.LeveledLogger.
type leveledLogger struct {
	log zerolog.Logger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.log.Error().Fields(kv).Msg(msg) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.log.Debug().Fields(kv).Msg(msg) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.log.Debug().Fields(kv).Msg(msg) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.log.Warn().Fields(kv).Msg(msg) }
