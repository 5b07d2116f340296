package esewa

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	domainErrors "github.com/yuzvak/storefront/internal/domain/errors"
	"github.com/yuzvak/storefront/internal/domain/payment"
	"github.com/yuzvak/storefront/internal/infrastructure/monitoring"
	"github.com/yuzvak/storefront/internal/pkg/logger"
)

const maxResponseBytes = 64 << 10

type Config struct {
	FormURL      string
	VerifyURL    string
	MerchantCode string
	Timeout      time.Duration
}

// Client talks to the eSewa transaction lookup endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *logger.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

func NewClient(cfg Config, log *logger.Logger, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) FormURL() string {
	return c.cfg.FormURL
}

func (c *Client) MerchantCode() string {
	return c.cfg.MerchantCode
}

// Verify issues GET verify_url?amt=..&scd=..&pid=..&rid=.. and looks for the
// success marker in the body. Any other 2xx body counts as a failed payment.
func (c *Client) Verify(ctx context.Context, req payment.VerificationRequest) (payment.VerificationResult, error) {
	done := monitoring.TimeGatewayRequest("verify")

	endpoint, err := c.verifyURL(req)
	if err != nil {
		done("error")
		return payment.VerificationResult{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		done("error")
		return payment.VerificationResult{}, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		done("unavailable")
		return payment.VerificationResult{}, fmt.Errorf("%w: %v", domainErrors.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		done("unavailable")
		return payment.VerificationResult{}, fmt.Errorf("%w: reading response: %v", domainErrors.ErrGatewayUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		done("bad_status")
		return payment.VerificationResult{}, fmt.Errorf("%w: status %d", domainErrors.ErrUnexpectedGatewayResponse, resp.StatusCode)
	}

	result := payment.ClassifyResponse(body)
	done(string(result.Status))

	c.logger.Debug("Gateway verification response",
		"order_id", req.OrderID,
		"status_code", resp.StatusCode,
		"result", string(result.Status),
	)
	return result, nil
}

func (c *Client) verifyURL(req payment.VerificationRequest) (string, error) {
	u, err := url.Parse(c.cfg.VerifyURL)
	if err != nil {
		return "", fmt.Errorf("invalid verify url: %w", err)
	}

	q := u.Query()
	q.Set("amt", req.Amount)
	q.Set("scd", c.cfg.MerchantCode)
	q.Set("pid", req.OrderID)
	q.Set("rid", req.RefID)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
