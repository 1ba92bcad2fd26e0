// Package weather looks up current conditions for the welcome announcement.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"
)

// Unavailable is the fixed phrase spoken when the lookup fails. The welcome
// announcement never blocks on weather.
const Unavailable = "unable to fetch weather information"

type Client struct {
	apiKey     string
	city       string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey, city string) *Client {
	return &Client{
		apiKey:     apiKey,
		city:       city,
		baseURL:    "https://api.openweathermap.org/data/2.5/weather",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientWithBaseURL is used by tests to point the client at a fake server.
func NewClientWithBaseURL(apiKey, city, baseURL string) *Client {
	c := NewClient(apiKey, city)
	c.baseURL = baseURL
	return c
}

type weatherResponse struct {
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

// Current returns a spoken summary like "27 degrees with haze".
func (c *Client) Current(ctx context.Context) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("weather api key not configured")
	}

	q := url.Values{}
	q.Set("q", c.city)
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching weather: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("weather service error: %s", resp.Status)
	}

	var data weatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("decoding weather response: %w", err)
	}
	if len(data.Weather) == 0 {
		return "", fmt.Errorf("weather response missing conditions")
	}

	temp := int(math.Round(data.Main.Temp))
	return fmt.Sprintf("%d degrees with %s", temp, data.Weather[0].Description), nil
}
