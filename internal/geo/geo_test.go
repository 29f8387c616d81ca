package geo

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/bowerhall/willow/internal/memory"
)

type stubResolver struct {
	address string
	err     error
}

func (s *stubResolver) Resolve(ctx context.Context, lat, lon float64) (string, error) {
	return s.address, s.err
}

func openTestStore(t *testing.T) *memory.Store {
	t.Helper()

	s, err := memory.OpenDimensions(":memory:", 8)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestIngestResolvesAndPersists(t *testing.T) {
	s := openTestStore(t)
	ing := NewIngestor(s, &stubResolver{address: "Pier 7, Harbour Road"})

	msg, err := ing.Ingest(context.Background(), RawSample{Lat: 52.1, Lon: 4.3, Remark: "evening walk"})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if !strings.Contains(msg, "Pier 7") {
		t.Errorf("confirmation = %q", msg)
	}

	loc, err := s.LatestLocation()
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if loc == nil || loc.Address != "Pier 7, Harbour Road" || loc.Remark != "evening walk" {
		t.Errorf("sample = %+v", loc)
	}
	if loc.Lat == nil || *loc.Lat != 52.1 {
		t.Errorf("lat = %v", loc.Lat)
	}
}

func TestIngestDegradesToCoordinates(t *testing.T) {
	s := openTestStore(t)
	ing := NewIngestor(s, &stubResolver{err: fmt.Errorf("geocoder down")})

	if _, err := ing.Ingest(context.Background(), RawSample{Lat: 52.1, Lon: 4.3}); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	loc, err := s.LatestLocation()
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if loc == nil || loc.Address != "52.10000,4.30000" {
		t.Errorf("address = %+v, want raw coordinates", loc)
	}
}
