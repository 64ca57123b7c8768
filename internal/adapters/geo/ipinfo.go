package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/zimbra-queue-guard/internal/core"
)

// Config holds the settings for the ipinfo.io resolver.
type Config struct {
	BaseURL     string
	Token       string
	MaxAttempts int
}

// IPInfoResolver implements core.GeoResolver against the ipinfo.io API with
// a fixed retry budget per lookup.
type IPInfoResolver struct {
	httpClient *http.Client
	cfg        Config
	logger     *zap.Logger
	sleep      func(time.Duration)
}

// NewIPInfoResolver creates a new resolver.
func NewIPInfoResolver(cfg Config, logger *zap.Logger) *IPInfoResolver {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://ipinfo.io"
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	return &IPInfoResolver{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cfg:        cfg,
		logger:     logger,
		sleep:      time.Sleep,
	}
}

type ipInfoResponse struct {
	Country  string `json:"country"`
	Hostname string `json:"hostname"`
}

// Resolve looks up the country and reverse hostname for ip, retrying up to
// the configured attempt budget before giving up.
func (r *IPInfoResolver) Resolve(ctx context.Context, ip string) (*core.GeoInfo, error) {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		info, err := r.lookup(ctx, ip)
		if err == nil {
			return info, nil
		}
		lastErr = err
		r.logger.Warn("Geolocation lookup failed",
			zap.String("ip", ip),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", r.cfg.MaxAttempts),
			zap.Error(err))
		if attempt < r.cfg.MaxAttempts {
			r.sleep(time.Duration(attempt) * time.Second)
		}
	}
	return nil, fmt.Errorf("resolve %s after %d attempts: %w", ip, r.cfg.MaxAttempts, lastErr)
}

func (r *IPInfoResolver) lookup(ctx context.Context, ip string) (*core.GeoInfo, error) {
	url := fmt.Sprintf("%s/%s", r.cfg.BaseURL, ip)
	if r.cfg.Token != "" {
		url += "?token=" + r.cfg.Token
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build geolocation request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geolocation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("geolocation request returned %d: %s", resp.StatusCode, body)
	}

	var parsed ipInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode geolocation response: %w", err)
	}
	return &core.GeoInfo{Country: parsed.Country, Hostname: parsed.Hostname}, nil
}
