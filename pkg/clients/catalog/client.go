package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/medimart-cart/internal/config"
	"github.com/mamadbah2/medimart-cart/internal/domain/models"
)

// ErrNotFound is returned when the catalog has no product with the given id.
var ErrNotFound = errors.New("product not found")

// Client exposes the catalog lookups the cart needs.
type Client interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds a catalog client using the provided configuration values.
func NewClient(cfg config.CatalogConfig) *APIClient {
	restyClient := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(10 * time.Second)

	if cfg.Token != "" {
		restyClient.SetAuthToken(cfg.Token)
	}

	return &APIClient{httpClient: restyClient}
}

// envelope mirrors the storefront API response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    *models.Product `json:"data"`
}

// GetProduct fetches the current catalog entry for id.
func (c *APIClient) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	if id == "" {
		return nil, errors.New("product id must not be empty")
	}

	result := new(envelope)
	apiErr := new(envelope)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(result).
		SetError(apiErr).
		Get("/products/" + url.PathEscape(id))
	if err != nil {
		return nil, fmt.Errorf("fetch product %s: %w", id, err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, fmt.Errorf("catalog api error: code=%d, message=%s", resp.StatusCode(), apiErr.Message)
	}

	if !result.Success || result.Data == nil {
		if result.Message != "" {
			return nil, fmt.Errorf("%w: %s: %s", ErrNotFound, id, result.Message)
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	product := result.Data
	if product.ID == "" {
		product.ID = id
	}
	return product, nil
}

var _ Client = (*APIClient)(nil)
