package prospect

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultYelpBaseURL = "https://api.yelp.com/v3"

// YelpClient sources business leads from the Yelp Fusion search API.
type YelpClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewYelpClient(apiKey string, timeout time.Duration, logger *zap.Logger) *YelpClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	return &YelpClient{
		baseURL:    defaultYelpBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type yelpSearchResponse struct {
	Businesses []struct {
		Name         string `json:"name"`
		Phone        string `json:"phone"`
		DisplayPhone string `json:"display_phone"`
		Categories   []struct {
			Alias string `json:"alias"`
		} `json:"categories"`
	} `json:"businesses"`
}

// Search queries businesses by term and free-text location. A missing API
// key disables the source and yields no results.
func (c *YelpClient) Search(ctx context.Context, term, location string, limit int) ([]Candidate, error) {
	if c.apiKey == "" {
		return nil, nil
	}

	searchURL := fmt.Sprintf("%s/businesses/search?term=%s&location=%s&limit=%d",
		c.baseURL, url.QueryEscape(term), url.QueryEscape(location), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yelp search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("yelp search: unexpected status %d", resp.StatusCode)
	}

	var search yelpSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		return nil, fmt.Errorf("yelp search: %w", err)
	}

	out := make([]Candidate, 0, len(search.Businesses))
	for _, b := range search.Businesses {
		phone := b.Phone
		if phone == "" {
			phone = strings.ReplaceAll(b.DisplayPhone, " ", "")
		}
		tags := make([]string, 0, len(b.Categories))
		for _, cat := range b.Categories {
			tags = append(tags, cat.Alias)
		}
		out = append(out, Candidate{
			Name:    b.Name,
			Phone:   phone,
			Company: b.Name,
			Source:  SourceYelp,
			Tags:    tags,
		})
	}
	return out, nil
}
