package modrinth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/modbrowse/internal/domain"
)

const (
	defaultTimeout  = 20 * time.Second
	defaultPageSize = 20
	maxIconBytes    = 2 << 20
	maxJSONBytes    = 32 << 20
)

// Client implements domain.Catalog for the Modrinth v2 API
type Client struct {
	baseURL    string
	userAgent  string
	pageSize   int
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new Modrinth API client
func NewClient(baseURL, userAgent string, pageSize int, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		pageSize:  pageSize,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// doRequest performs a GET against rawURL and returns the body of a 200
// response, refusing bodies larger than limit
func (c *Client) doRequest(ctx context.Context, rawURL, accept string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", accept)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.logger.Debug("modrinth request", "url", rawURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Error("modrinth request failed", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrServerOffline, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, domain.ErrNotFound
	case http.StatusTooManyRequests:
		return nil, domain.ErrRateLimited
	default:
		c.logger.Error("modrinth request error", "status", resp.StatusCode, "url", rawURL)
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("response exceeds %d bytes: %w", limit, domain.ErrBadResponse)
	}
	return body, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dest any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	body, err := c.doRequest(ctx, reqURL, "application/json", maxJSONBytes)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return fmt.Errorf("%w: %v", domain.ErrBadResponse, err)
	}
	return nil
}

// Facets builds the search facet filter for criteria
func Facets(criteria domain.SearchCriteria) string {
	projectType := "mod"
	if criteria.Modpacks {
		projectType = "modpack"
	}
	groups := [][]string{{"project_type:" + projectType}}
	if criteria.MCVersion != "" {
		groups = append(groups, []string{"versions:" + criteria.MCVersion})
	}
	raw, _ := json.Marshal(groups)
	return string(raw)
}

// Search implements domain.SearchRepository. The next page starts at the
// number of hits consumed so far.
func (c *Client) Search(ctx context.Context, criteria domain.SearchCriteria, prev *domain.SearchResult) (*domain.PageResult, error) {
	offset := 0
	if prev != nil {
		offset = prev.Fetched
	}

	query := url.Values{}
	query.Set("query", criteria.Query)
	query.Set("facets", Facets(criteria))
	query.Set("index", "relevance")
	query.Set("offset", strconv.Itoa(offset))
	query.Set("limit", strconv.Itoa(c.pageSize))

	var resp SearchResponse
	if err := c.getJSON(ctx, "/v2/search", query, &resp); err != nil {
		return nil, err
	}

	items := MapHits(resp.Hits)
	return &domain.PageResult{
		Items:     items,
		TotalHits: resp.TotalHits,
		EndOfData: len(resp.Hits) > 0 && offset+len(resp.Hits) >= resp.TotalHits,
	}, nil
}

// GetDetails implements domain.DetailRepository by listing the project's versions
func (c *Client) GetDetails(ctx context.Context, item domain.Item) (*domain.Detail, error) {
	query := url.Values{}
	if item.Modpack {
		query.Set("loaders", `["mrpack"]`)
	}

	var versions []Version
	path := fmt.Sprintf("/v2/project/%s/version", url.PathEscape(item.ID))
	if err := c.getJSON(ctx, path, query, &versions); err != nil {
		return nil, err
	}

	return &domain.Detail{
		Item:     item,
		Versions: MapVersions(versions),
	}, nil
}

// FetchIcon implements domain.IconSource
func (c *Client) FetchIcon(ctx context.Context, key, iconURL string) ([]byte, error) {
	if iconURL == "" {
		return nil, nil
	}
	data, err := c.doRequest(ctx, iconURL, "image/*", maxIconBytes)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return data, err
}
