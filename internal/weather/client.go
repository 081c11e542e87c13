package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ErrNoMatch is returned by Geocode when no location matches the query.
var ErrNoMatch = errors.New("no location matched the query")

// Config holds the endpoints for the weather integration. Leaving
// ForecastBaseURL empty disables the feature.
type Config struct {
	GeocodeBaseURL  string
	ForecastBaseURL string
	Timeout         time.Duration
}

// Location is a geocoded place.
type Location struct {
	Name      string  `json:"name"`
	Country   string  `json:"country,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Conditions are the current observed conditions at a location.
type Conditions struct {
	TemperatureC    float64   `json:"temperature_c"`
	WindSpeedKmh    float64   `json:"wind_speed_kmh"`
	PrecipitationMm float64   `json:"precipitation_mm"`
	WeatherCode     int       `json:"weather_code"`
	ObservedAt      time.Time `json:"observed_at"`
}

// Advisory is a care warning derived from current conditions, aimed at
// outdoor plants.
type Advisory struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// Client talks to an Open-Meteo compatible forecast and geocoding API.
type Client struct {
	geocodeURL  string
	forecastURL string
	client      *http.Client
}

// NewClient creates a weather client, or nil when the integration is not
// configured. Callers treat a nil client as feature-disabled.
func NewClient(cfg Config) *Client {
	if cfg.ForecastBaseURL == "" {
		return nil
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	geocodeURL := cfg.GeocodeBaseURL
	if geocodeURL == "" {
		geocodeURL = cfg.ForecastBaseURL
	}
	return &Client{
		geocodeURL:  geocodeURL,
		forecastURL: cfg.ForecastBaseURL,
		client:      &http.Client{Timeout: timeout},
	}
}

// Geocode resolves a free-text place query to a location.
func (c *Client) Geocode(ctx context.Context, query string) (*Location, error) {
	u := fmt.Sprintf("%s/v1/search?name=%s&count=1", c.geocodeURL, url.QueryEscape(query))

	var resp struct {
		Results []struct {
			Name      string  `json:"name"`
			Country   string  `json:"country"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"results"`
	}
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("geocoding %q: %w", query, err)
	}
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("geocoding %q: %w", query, ErrNoMatch)
	}
	r := resp.Results[0]
	return &Location{Name: r.Name, Country: r.Country, Latitude: r.Latitude, Longitude: r.Longitude}, nil
}

// Current fetches current conditions for the given coordinates.
func (c *Client) Current(ctx context.Context, lat, lon float64) (*Conditions, error) {
	u := fmt.Sprintf("%s/v1/forecast?latitude=%.4f&longitude=%.4f&current=temperature_2m,precipitation,wind_speed_10m,weather_code",
		c.forecastURL, lat, lon)

	var resp struct {
		Current struct {
			Time          string  `json:"time"`
			Temperature   float64 `json:"temperature_2m"`
			Precipitation float64 `json:"precipitation"`
			WindSpeed     float64 `json:"wind_speed_10m"`
			WeatherCode   int     `json:"weather_code"`
		} `json:"current"`
	}
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("fetching conditions: %w", err)
	}

	observed, err := time.Parse("2006-01-02T15:04", resp.Current.Time)
	if err != nil {
		observed = time.Now().UTC()
	}
	return &Conditions{
		TemperatureC:    resp.Current.Temperature,
		WindSpeedKmh:    resp.Current.WindSpeed,
		PrecipitationMm: resp.Current.Precipitation,
		WeatherCode:     resp.Current.WeatherCode,
		ObservedAt:      observed,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// Advisory thresholds, in metric units.
const (
	frostThresholdC  = 2.0
	heatThresholdC   = 35.0
	windThresholdKmh = 60.0
)

// Advisories derives care warnings for outdoor plants from conditions.
func Advisories(c *Conditions) []Advisory {
	var out []Advisory
	if c.TemperatureC <= frostThresholdC {
		out = append(out, Advisory{
			Severity: "warning",
			Code:     "frost",
			Message:  "Frost risk: move sensitive outdoor plants inside or cover them.",
		})
	}
	if c.TemperatureC >= heatThresholdC {
		out = append(out, Advisory{
			Severity: "warning",
			Code:     "heat",
			Message:  "Extreme heat: water outdoor plants early and provide shade.",
		})
	}
	if c.WindSpeedKmh >= windThresholdKmh {
		out = append(out, Advisory{
			Severity: "advisory",
			Code:     "wind",
			Message:  "Strong winds: secure tall plants and hanging pots.",
		})
	}
	return out
}
