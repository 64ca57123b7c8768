package zimbra

import (
	"context"
	"crypto/tls"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/zimbra-queue-guard/internal/core"
)

// Config holds the connection settings for the Zimbra admin SOAP endpoint.
type Config struct {
	URL                string
	AdminUser          string
	AdminPassword      string
	QueueName          string
	ScanLimit          int
	InsecureSkipVerify bool
}

// Client is the SOAP implementation of core.AdminClient. Backend fault codes
// are classified into core error kinds here, once, so callers never inspect
// response text.
type Client struct {
	httpClient *http.Client
	cfg        Config
	logger     *zap.Logger
}

// NewClient creates a new Zimbra admin client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	transport := &http.Transport{}
	if cfg.InsecureSkipVerify {
		// Admin endpoints commonly run on self-signed certificates.
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	if cfg.QueueName == "" {
		cfg.QueueName = "deferred"
	}
	if cfg.ScanLimit <= 0 {
		cfg.ScanLimit = 300
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
		cfg:    cfg,
		logger: logger,
	}
}

// roundTrip posts one SOAP envelope and returns the raw response body.
func (c *Client) roundTrip(ctx context.Context, payload string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, strings.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build admin request: %w", err)
	}
	req.Header.Set("Content-Type", "application/xml")
	req.Header.Set("SOAPAction", `"#POST"`)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("admin request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read admin response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.faultError(data, resp.StatusCode)
	}
	return data, nil
}

type faultEnvelope struct {
	Body struct {
		Fault struct {
			Reason struct {
				Text string `xml:"Text"`
			} `xml:"Reason"`
			Detail struct {
				Error struct {
					Code string `xml:"Code"`
				} `xml:"Error"`
			} `xml:"Detail"`
		} `xml:"Fault"`
	} `xml:"Body"`
}

// faultError maps a SOAP fault response to an error kind.
func (c *Client) faultError(data []byte, status int) error {
	var env faultEnvelope
	_ = xml.Unmarshal(data, &env)

	reason := strings.TrimSpace(env.Body.Fault.Reason.Text)
	code := env.Body.Fault.Detail.Error.Code
	text := string(data)

	switch {
	case strings.Contains(code, "NO_SUCH_ACCOUNT") || strings.Contains(text, "no such account"):
		return fmt.Errorf("%w: %s", core.ErrAccountNotFound, reason)
	case strings.Contains(text, "service.ALREADY_IN_PROGRESS"):
		return fmt.Errorf("%w: %s", core.ErrAlreadyInProgress, reason)
	case strings.Contains(code, "AUTH_FAILED") || strings.Contains(code, "AUTH_EXPIRED"):
		return fmt.Errorf("%w: %s", core.ErrAuthFailed, reason)
	}
	if reason == "" {
		reason = fmt.Sprintf("unexpected status %d", status)
	}
	return fmt.Errorf("admin request failed: %s", reason)
}

const authTemplate = `<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope" xmlns="urn:zimbra">
  <soap:Header/>
  <soap:Body>
    <AuthRequest xmlns="urn:zimbraAdmin">
      <account by="name">%s</account>
      <password>%s</password>
    </AuthRequest>
  </soap:Body>
</soap:Envelope>`

type authResponseEnvelope struct {
	Body struct {
		AuthResponse struct {
			AuthToken string `xml:"authToken"`
		} `xml:"AuthResponse"`
	} `xml:"Body"`
}

// Authenticate obtains an admin auth token.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	payload := fmt.Sprintf(authTemplate, xmlEscape(c.cfg.AdminUser), xmlEscape(c.cfg.AdminPassword))
	data, err := c.roundTrip(ctx, payload)
	if err != nil {
		return "", fmt.Errorf("authenticate: %w", err)
	}

	var env authResponseEnvelope
	if err := xml.Unmarshal(data, &env); err != nil {
		return "", fmt.Errorf("decode auth response: %w", err)
	}
	token := strings.TrimSpace(env.Body.AuthResponse.AuthToken)
	if token == "" {
		return "", fmt.Errorf("%w: empty auth token in response", core.ErrAuthFailed)
	}
	return token, nil
}

// xmlEscape escapes a value for interpolation into an envelope template.
func xmlEscape(s string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return s
	}
	return b.String()
}
