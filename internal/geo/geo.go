// Package geo ingests raw location reports. The transport that posts
// them is out of scope; the core only ever sees resolved samples.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/bowerhall/willow/internal/logger"
	"github.com/bowerhall/willow/internal/memory"
)

// Resolver turns raw coordinates into a human-readable address.
type Resolver interface {
	Resolve(ctx context.Context, lat, lon float64) (string, error)
}

type nominatim struct {
	baseURL string
	client  *http.Client
}

// NewNominatim reverse-geocodes against a Nominatim-compatible server.
func NewNominatim(baseURL string) Resolver {
	if baseURL == "" {
		baseURL = "https://nominatim.openstreetmap.org"
	}
	return &nominatim{baseURL: baseURL, client: http.DefaultClient}
}

func (n *nominatim) Resolve(ctx context.Context, lat, lon float64) (string, error) {
	endpoint := fmt.Sprintf("%s/reverse?format=json&lat=%s&lon=%s",
		n.baseURL,
		url.QueryEscape(fmt.Sprintf("%f", lat)),
		url.QueryEscape(fmt.Sprintf("%f", lon)))

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "willow-agent")

	resp, err := n.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != 200 {
		return "", fmt.Errorf("reverse geocode error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		DisplayName string `json:"display_name"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", err
	}

	if parsed.DisplayName == "" {
		return "", fmt.Errorf("no address for %f,%f", lat, lon)
	}

	return parsed.DisplayName, nil
}

// RawSample is what an external producer posts.
type RawSample struct {
	Lat     float64
	Lon     float64
	Remark  string
	Battery *float64
}

type Ingestor struct {
	memory   *memory.Store
	resolver Resolver
}

func NewIngestor(store *memory.Store, resolver Resolver) *Ingestor {
	return &Ingestor{memory: store, resolver: resolver}
}

// Ingest resolves and persists a raw sample, returning a confirmation
// string. Resolution failure degrades to a coordinate-only address.
func (i *Ingestor) Ingest(ctx context.Context, raw RawSample) (string, error) {
	address := fmt.Sprintf("%.5f,%.5f", raw.Lat, raw.Lon)

	if i.resolver != nil {
		resolved, err := i.resolver.Resolve(ctx, raw.Lat, raw.Lon)
		if err != nil {
			logger.Warn("address resolution failed, storing coordinates", "error", err)
		} else {
			address = resolved
		}
	}

	lat, lon := raw.Lat, raw.Lon
	sample, err := i.memory.InsertLocation(address, raw.Remark, raw.Battery, &lat, &lon)
	if err != nil {
		return "", fmt.Errorf("location not recorded: %w", err)
	}

	return fmt.Sprintf("location recorded: %s", sample.Address), nil
}
