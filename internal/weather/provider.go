// Package weather fetches the day's forecast from the Open-Meteo API and
// degrades to last-known-good data when the network is down.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lielu/kioskd/internal/kv"
)

// Placeholder is shown before the first successful fetch.
const Placeholder = "--° / --°"

// cacheKey is where the last good report lives in the kv bucket.
const cacheKey = "last_report"

// cacheTTL bounds how stale a persisted report may be before a fresh start
// ignores it.
const cacheTTL = 24 * time.Hour

// Report is one weather reading prepared for display.
type Report struct {
	Text   string `json:"text"`
	IconID string `json:"icon_id"`
}

// Provider fetches weather for a fixed location.
type Provider struct {
	client   *http.Client
	baseURL  string
	lat, lon float64
	unit     string
	timezone string

	mu    sync.Mutex
	last  *Report
	cache kv.Bucket
}

// New creates a Provider. cache may be nil; then last-known-good survives
// only for the process lifetime.
func New(lat, lon float64, unit, timezone string, timeout time.Duration, cache kv.Bucket) *Provider {
	p := &Provider{
		client:   &http.Client{Timeout: timeout},
		baseURL:  "https://api.open-meteo.com/v1/forecast",
		lat:      lat,
		lon:      lon,
		unit:     unit,
		timezone: timezone,
		cache:    cache,
	}
	p.restore()
	return p
}

// restore pulls the persisted last report, if any.
func (p *Provider) restore() {
	if p.cache == nil {
		return
	}
	var r Report
	ok, err := p.cache.Get(cacheKey, &r)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read cached weather")
		return
	}
	if ok {
		p.last = &r
		log.Info().Str("text", r.Text).Msg("Restored cached weather")
	}
}

// apiResponse is the slice of the Open-Meteo payload we consume.
type apiResponse struct {
	Daily struct {
		TemperatureMax []float64 `json:"temperature_2m_max"`
		TemperatureMin []float64 `json:"temperature_2m_min"`
		WeatherCode    []int     `json:"weathercode"`
	} `json:"daily"`
}

// FetchCurrent returns the day's report. On any failure it returns the
// last-known-good report or the placeholder; it never propagates an error
// to the refresh task.
func (p *Provider) FetchCurrent(ctx context.Context) Report {
	r, err := p.fetch(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Weather fetch failed")
		return p.fallback()
	}

	p.mu.Lock()
	p.last = &r
	p.mu.Unlock()

	if p.cache != nil {
		if err := p.cache.Store(cacheKey, r, cacheTTL); err != nil {
			log.Warn().Err(err).Msg("Failed to persist weather report")
		}
	}

	log.Debug().Str("text", r.Text).Str("icon", r.IconID).Msg("Weather updated")
	return r
}

func (p *Provider) fetch(ctx context.Context) (Report, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", p.lat))
	q.Set("longitude", fmt.Sprintf("%.4f", p.lon))
	q.Set("daily", "temperature_2m_max,temperature_2m_min,weathercode")
	q.Set("current_weather", "true")
	q.Set("temperature_unit", p.unit)
	q.Set("timezone", p.timezone)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Report{}, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Report{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Report{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var data apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Report{}, fmt.Errorf("decode response: %w", err)
	}

	d := data.Daily
	if len(d.TemperatureMax) == 0 || len(d.TemperatureMin) == 0 || len(d.WeatherCode) == 0 {
		return Report{}, fmt.Errorf("response missing daily data")
	}

	return Report{
		Text:   fmt.Sprintf("%.0f° / %.0f°", d.TemperatureMax[0], d.TemperatureMin[0]),
		IconID: IconForCode(d.WeatherCode[0]),
	}, nil
}

func (p *Provider) fallback() Report {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last != nil {
		return *p.last
	}
	return Report{Text: Placeholder, IconID: "clear"}
}

// SetBaseURL overrides the API endpoint. Test hook.
func (p *Provider) SetBaseURL(u string) {
	p.baseURL = u
}
