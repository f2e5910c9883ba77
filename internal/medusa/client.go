package medusa

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/vibe-gaming/storefront-router/internal/config"
	"github.com/vibe-gaming/storefront-router/internal/domain"
	pkgvalidator "github.com/vibe-gaming/storefront-router/pkg/validator"
)

const (
	publishableKeyHeader = "x-publishable-api-key"
	regionsPath          = "/store/regions"
	healthPath           = "/health"
	maxBodySize          = 4 << 20
)

// Client talks to the commerce backend store API.
type Client struct {
	baseURL        string
	publishableKey string
	timeout        time.Duration
	httpClient     *http.Client
	validate       *validator.Validate
}

func NewClient(cfg config.Medusa) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Client{
		baseURL:        cfg.BackendURL,
		publishableKey: cfg.PublishableKey,
		timeout:        timeout,
		httpClient:     &http.Client{Timeout: timeout},
		validate:       pkgvalidator.New(),
	}
}

// ListRegions fetches every region from the backend. The result is validated
// as a whole: a single malformed region fails the call.
func (c *Client) ListRegions(ctx context.Context) ([]domain.Region, error) {
	if c.baseURL == "" {
		return nil, domain.ErrBackendNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+regionsPath, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create regions request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(publishableKeyHeader, c.publishableKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "send regions request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrap(err, "read regions response")
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp errorResponse
		if json.Unmarshal(body, &errResp) == nil {
			apiErr.Message = errResp.Message
		}
		return nil, apiErr
	}

	var parsed regionsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.Wrapf(domain.ErrMalformedRegions, "decode: %v", err)
	}
	if err := c.validate.Struct(parsed); err != nil {
		return nil, errors.Wrapf(domain.ErrMalformedRegions, "validate: %v", err)
	}
	if len(parsed.Regions) == 0 {
		return nil, domain.ErrNoRegions
	}

	regions := make([]domain.Region, 0, len(parsed.Regions))
	for _, r := range parsed.Regions {
		regions = append(regions, r.toDomain())
	}

	return regions, nil
}

// CheckStatus probes the backend health endpoint. It never returns an error,
// the outcome is described in the Status.
func (c *Client) CheckStatus(ctx context.Context) Status {
	if c.baseURL == "" {
		return Status{Message: domain.ErrBackendNotConfigured.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return Status{Message: err.Error()}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Status{Message: err.Error()}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))

	if resp.StatusCode != http.StatusOK {
		return Status{Message: fmt.Sprintf("backend responded with status: %s", resp.Status)}
	}

	return Status{Available: true, Message: "backend is available"}
}
