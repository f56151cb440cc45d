package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Result is the coordinate returned by the geocoding provider. A zero Result
// with a nil error means the address was not found.
type Result struct {
	Lat         float64
	Lon         float64
	DisplayName string
}

// Found reports whether the provider returned a usable coordinate.
func (r Result) Found() bool { return r.Lat != 0 || r.Lon != 0 }

// Geocoder turns a street address into a coordinate.
type Geocoder interface {
	Geocode(ctx context.Context, address, municipality string) (Result, error)
}

// Client implements Geocoder against the Nominatim search API.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Nominatim geocoding client. The user agent is required
// by the Nominatim usage policy.
func NewClient(baseURL, userAgent string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Geocode resolves "<address>, <municipality>, Italia" to a coordinate.
func (c *Client) Geocode(ctx context.Context, address, municipality string) (Result, error) {
	query := address
	if municipality != "" {
		query = fmt.Sprintf("%s, %s, Italia", address, municipality)
	}

	params := url.Values{
		"q":      {query},
		"format": {"jsonv2"},
		"limit":  {"1"},
	}
	fullURL := c.baseURL + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Result{}, fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return Result{}, fmt.Errorf("decode response: %w", err)
	}
	if len(places) == 0 {
		return Result{}, nil
	}

	lat, errLat := strconv.ParseFloat(places[0].Lat, 64)
	lon, errLon := strconv.ParseFloat(places[0].Lon, 64)
	if errLat != nil || errLon != nil {
		return Result{}, fmt.Errorf("unparsable coordinate in response: lat=%q lon=%q", places[0].Lat, places[0].Lon)
	}

	return Result{Lat: lat, Lon: lon, DisplayName: places[0].DisplayName}, nil
}

// Nominatim API response type. Coordinates arrive as strings.

type place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}
