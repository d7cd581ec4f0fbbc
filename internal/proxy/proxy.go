// Package proxy builds HTTP clients from the proxy preferences and checks
// that the configured proxy can reach the internet.
package proxy

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	nethttp "net/http"
	"net/url"
	"strconv"
	"strings"

	ntlmssp "github.com/Azure/go-ntlmssp"
	"github.com/rs/zerolog"
	"golang.org/x/net/http/httpproxy"

	"github.com/driftsync/syncshell/internal/config"
	"github.com/driftsync/syncshell/internal/constants"
)

// DefaultPort is used when a manual proxy has no port.
const DefaultPort = 8080

var (
	ErrUnsupportedMode = errors.New("unsupported proxy mode")
	ErrUnsupportedType = errors.New("unsupported proxy type")
)

// NewClient returns an HTTP client honouring p.
//
//   - none:   direct connections
//   - auto:   HTTP_PROXY/HTTPS_PROXY/NO_PROXY from the environment
//   - manual: Host:Port of the given type, with NoProxy bypasses
//
// A manual proxy without a host falls back to direct connections so the
// settings window still opens with a half-filled config.
func NewClient(p config.ProxyPrefs, logger zerolog.Logger) (*nethttp.Client, error) {
	transport := &nethttp.Transport{
		DialContext: (&net.Dialer{
			Timeout:   constants.HTTPDialTimeout,
			KeepAlive: constants.HTTPDialKeepAlive,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConns:        10,
		IdleConnTimeout:     constants.HTTPIdleConnTimeout,
		TLSHandshakeTimeout: constants.HTTPTLSHandshakeTimeout,
	}
	client := &nethttp.Client{
		Transport: transport,
		Timeout:   constants.ConnectivityCheckTimeout,
	}

	switch strings.ToLower(p.Mode) {
	case config.ProxyModeNone, "":
		transport.Proxy = nil
		return client, nil

	case config.ProxyModeAuto:
		transport.Proxy = nethttp.ProxyFromEnvironment
		return client, nil

	case config.ProxyModeManual:
		// handled below

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMode, p.Mode)
	}

	if p.Host == "" {
		logger.Warn().Msg("Manual proxy has no host, falling back to direct connections")
		transport.Proxy = nil
		return client, nil
	}

	proxyURL, err := BuildURL(p)
	if err != nil {
		return nil, err
	}
	transport.Proxy = proxyFuncWithBypass(proxyURL, p.NoProxy, logger)

	if strings.ToLower(p.Type) == config.ProxyTypeNTLM {
		if p.RequiresAuth && p.Username != "" && p.Password == "" {
			logger.Warn().Msg("NTLM proxy user configured but password missing")
		}
		client.Transport = ntlmssp.Negotiator{RoundTripper: transport}
	}
	return client, nil
}

// BuildURL turns manual proxy preferences into a proxy URL. NTLM proxies are
// plain HTTP proxies at the transport level.
func BuildURL(p config.ProxyPrefs) (*url.URL, error) {
	scheme := "http"
	switch strings.ToLower(p.Type) {
	case config.ProxyTypeHTTP, config.ProxyTypeNTLM, "":
	case config.ProxyTypeSOCKS5H:
		scheme = "socks5h"
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, p.Type)
	}

	port := p.Port
	if port == 0 {
		port = DefaultPort
	}

	u := &url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(p.Host, strconv.Itoa(port)),
	}
	// Only embed credentials if both user and password are set.
	if p.RequiresAuth && p.Username != "" && p.Password != "" {
		u.User = url.UserPassword(p.Username, p.Password)
	}
	return u, nil
}

// proxyFuncWithBypass routes through proxyURL except for hosts matched by
// noProxy (hosts, *.domains, CIDRs, comma separated).
func proxyFuncWithBypass(proxyURL *url.URL, noProxy string, logger zerolog.Logger) func(*nethttp.Request) (*url.URL, error) {
	if noProxy == "" {
		return nethttp.ProxyURL(proxyURL)
	}
	cfg := httpproxy.Config{
		HTTPProxy:  proxyURL.String(),
		HTTPSProxy: proxyURL.String(),
		NoProxy:    noProxy,
	}
	proxyFunc := cfg.ProxyFunc()
	return func(req *nethttp.Request) (*url.URL, error) {
		result, err := proxyFunc(req.URL)
		if result == nil {
			logger.Debug().Str("host", req.URL.Host).Msg("Proxy bypass")
		}
		return result, err
	}
}

// NeedsPassword reports whether p asks for authentication but has no
// password yet, so the caller should prompt for one.
func NeedsPassword(p config.ProxyPrefs) bool {
	if strings.ToLower(p.Mode) != config.ProxyModeManual || !p.RequiresAuth {
		return false
	}
	return p.Username != "" && p.Password == ""
}
