package overpass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/nearamenities/backend/pkg/errors"
)

// Client fetches raw geodata elements for a structured query.
type Client interface {
	Fetch(ctx context.Context, query Query) ([]Element, error)
}

// TagFilter is a single key=value selector on source tags.
type TagFilter struct {
	Key   string
	Value string
}

// BoundingBox is a south-west / north-east rectangle.
type BoundingBox struct {
	SouthLat float64
	WestLng  float64
	NorthLat float64
	EastLng  float64
}

// Query is the structured form rendered internally to the source's query
// language. Filters are ANDed; each is applied to nodes, ways and
// relations within the box.
type Query struct {
	Filters []TagFilter
	BBox    BoundingBox
	Timeout time.Duration
}

// LatLng is a raw coordinate pair as the source emits it.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Bounds is the source's precomputed bounding box for ways and relations.
type Bounds struct {
	MinLat float64 `json:"minlat"`
	MinLon float64 `json:"minlon"`
	MaxLat float64 `json:"maxlat"`
	MaxLon float64 `json:"maxlon"`
}

// Element is one raw heterogeneous record: a node, way or relation with
// free-form tags. Which coordinate fields are populated varies by type
// and by data quality.
type Element struct {
	Type     string            `json:"type"`
	ID       int64             `json:"id"`
	Lat      *float64          `json:"lat,omitempty"`
	Lon      *float64          `json:"lon,omitempty"`
	Center   *LatLng           `json:"center,omitempty"`
	Geometry []LatLng          `json:"geometry,omitempty"`
	Bounds   *Bounds           `json:"bounds,omitempty"`
	Tags     map[string]string `json:"tags,omitempty"`
}

// ExternalID is the stable source identifier, e.g. "node/123456".
func (e *Element) ExternalID() string {
	return fmt.Sprintf("%s/%d", e.Type, e.ID)
}

type response struct {
	Elements []Element `json:"elements"`
}

// HTTPClient talks to an ordered list of interpreter endpoints. Requests
// are one-shot and interactive: on any transport error or non-2xx reply
// the same query goes to the next endpoint with no backoff. It fails only
// when every endpoint has failed, and the error carries all attempts.
type HTTPClient struct {
	endpoints  []string
	httpClient *http.Client
}

// NewClient creates a client over the given endpoints, tried in order.
func NewClient(endpoints []string, timeout time.Duration) (*HTTPClient, error) {
	trimmed := make([]string, 0, len(endpoints))
	for _, e := range endpoints {
		if t := strings.TrimSpace(e); t != "" {
			trimmed = append(trimmed, strings.TrimRight(t, "/"))
		}
	}
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("at least one overpass endpoint is required")
	}
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	return &HTTPClient{
		endpoints: trimmed,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Fetch renders the query and tries each endpoint in order.
func (c *HTTPClient) Fetch(ctx context.Context, query Query) ([]Element, error) {
	if len(query.Filters) == 0 {
		return nil, apperrors.NewValidationError("query requires at least one tag filter")
	}

	ql := renderQL(query)

	var attempts []error
	for _, endpoint := range c.endpoints {
		elements, err := c.fetchOne(ctx, endpoint, ql)
		if err == nil {
			return elements, nil
		}
		if ctx.Err() != nil {
			attempts = append(attempts, err)
			break
		}
		attempts = append(attempts, fmt.Errorf("%s: %w", endpoint, err))
	}

	return nil, apperrors.NewExternalError("all geodata endpoints failed", errors.Join(attempts...))
}

func (c *HTTPClient) fetchOne(ctx context.Context, endpoint, ql string) ([]Element, error) {
	form := url.Values{"data": []string{ql}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused before moving on.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return out.Elements, nil
}

// renderQL builds the interpreter query: each filter applied to nodes,
// ways and relations inside the box, with centers emitted for non-nodes.
func renderQL(query Query) string {
	timeoutSec := int(query.Timeout.Seconds())
	if timeoutSec <= 0 {
		timeoutSec = 25
	}

	var filters strings.Builder
	for _, f := range query.Filters {
		filters.WriteString(fmt.Sprintf("[%q=%q]", f.Key, f.Value))
	}

	bbox := fmt.Sprintf("(%g,%g,%g,%g)",
		query.BBox.SouthLat, query.BBox.WestLng,
		query.BBox.NorthLat, query.BBox.EastLng,
	)

	var b strings.Builder
	fmt.Fprintf(&b, "[out:json][timeout:%d];(", timeoutSec)
	for _, kind := range []string{"node", "way", "relation"} {
		b.WriteString(kind)
		b.WriteString(filters.String())
		b.WriteString(bbox)
		b.WriteString(";")
	}
	b.WriteString(");out center;")
	return b.String()
}
