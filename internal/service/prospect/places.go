package prospect

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const defaultPlacesBaseURL = "https://maps.googleapis.com/maps/api/place"

// PlacesClient sources business leads from the Google Places text search.
// Each search hit costs a second details request for the phone number.
type PlacesClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewPlacesClient(apiKey string, timeout time.Duration, logger *zap.Logger) *PlacesClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	return &PlacesClient{
		baseURL:    defaultPlacesBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type placesSearchResponse struct {
	Results []struct {
		PlaceID string `json:"place_id"`
	} `json:"results"`
}

type placesDetailsResponse struct {
	Result struct {
		Name                 string   `json:"name"`
		FormattedPhoneNumber string   `json:"formatted_phone_number"`
		Website              string   `json:"website"`
		FormattedAddress     string   `json:"formatted_address"`
		Rating               float64  `json:"rating"`
		Types                []string `json:"types"`
	} `json:"result"`
}

// Search runs a text search near latlng and resolves each hit into a
// candidate. A missing API key disables the source and yields no results.
func (c *PlacesClient) Search(ctx context.Context, query, latlng string, radiusMeters int) ([]Candidate, error) {
	if c.apiKey == "" {
		return nil, nil
	}

	searchURL := fmt.Sprintf("%s/textsearch/json?query=%s&location=%s&radius=%d&key=%s",
		c.baseURL, url.QueryEscape(query), url.QueryEscape(latlng), radiusMeters, url.QueryEscape(c.apiKey))

	var search placesSearchResponse
	if err := c.getJSON(ctx, searchURL, &search); err != nil {
		return nil, fmt.Errorf("places text search: %w", err)
	}

	var out []Candidate
	for _, hit := range search.Results {
		if hit.PlaceID == "" {
			continue
		}

		detailsURL := fmt.Sprintf("%s/details/json?place_id=%s&fields=%s&key=%s",
			c.baseURL, url.QueryEscape(hit.PlaceID),
			url.QueryEscape("name,formatted_phone_number,website,formatted_address,rating,types"),
			url.QueryEscape(c.apiKey))

		var details placesDetailsResponse
		if err := c.getJSON(ctx, detailsURL, &details); err != nil {
			c.logger.Warn("place details fetch failed",
				zap.String("place_id", hit.PlaceID),
				zap.Error(err),
			)
			continue
		}

		result := details.Result
		out = append(out, Candidate{
			Name:    result.Name,
			Phone:   result.FormattedPhoneNumber,
			Company: result.Name,
			Source:  SourceGooglePlaces,
			Tags:    result.Types,
		})
	}
	return out, nil
}

func (c *PlacesClient) getJSON(ctx context.Context, rawURL string, into any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(into)
}
