package sensortop

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jondoveston/sensortop/internal/sensor"
)

// SensorSource polls a sensortop serve endpoint
type SensorSource struct {
	url    *url.URL
	client *http.Client
	now    func() time.Time
}

func NewSensorSource(u *url.URL, client *http.Client) *SensorSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &SensorSource{url: u, client: client, now: time.Now}
}

func (s *SensorSource) Name() string {
	return "sensor " + s.url.String()
}

// Check fetches once and requires a parseable timestamp, which any JSON body
// from another service lacks
func (s *SensorSource) Check(ctx context.Context) error {
	snap, err := s.get(ctx)
	if err != nil {
		return err
	}
	if _, err := snap.Time(); err != nil {
		return fmt.Errorf("not a sensor snapshot: %w", err)
	}
	return nil
}

// Fetch requests a snapshot. A snapshot without a hostname is titled with
// the URL host.
func (s *SensorSource) Fetch(ctx context.Context) (*sensor.Snapshot, error) {
	snap, err := s.get(ctx)
	if err != nil {
		return nil, err
	}
	if snap.Hostname == "" {
		snap.Hostname = s.url.Hostname()
	}
	if snap.AuthLog == nil {
		snap.AuthLog = []string{}
	}
	return snap, nil
}

// get requests a snapshot with a cache-busting t parameter and the AJAX
// marker header the endpoint requires
func (s *SensorSource) get(ctx context.Context) (*sensor.Snapshot, error) {
	u := *s.url
	q := u.Query()
	q.Set("t", strconv.FormatInt(s.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set(sensor.AJAXHeader, sensor.AJAXValue)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("fetch snapshot: unexpected status %s", resp.Status)
	}

	var snap sensor.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}
