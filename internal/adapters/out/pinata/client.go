// Package pinata uploads custody track snapshots to a Pinata compatible
// pinning service and returns the IPFS content identifier.
package pinata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"custody/internal/core/ports"
)

const pinJSONPath = "/pinning/pinJSONToIPFS"

// Client implements ports.AnchorClient. Deadlines come from the caller's
// context; HTTPClient has no timeout of its own.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	JWT        string
}

func New(baseURL, jwt string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{},
		JWT:        jwt,
	}
}

type content struct {
	OrderID string          `json:"order_id"`
	Track   []ports.HopView `json:"track"`
}

type metadata struct {
	Name      string            `json:"name"`
	KeyValues map[string]string `json:"keyvalues,omitempty"`
}

type pinRequest struct {
	Content  content  `json:"pinataContent"`
	Metadata metadata `json:"pinataMetadata"`
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// StatusError is a non 2xx answer from the pinning service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("pinning service returned http %d: %s", e.StatusCode, e.Body)
}

// Upload pins the track of one order. The idempotency key travels as pin
// metadata so duplicate pins of the same state can be found later.
func (c *Client) Upload(ctx context.Context, request ports.AnchorRequest) (string, error) {
	body, err := json.Marshal(pinRequest{
		Content: content{OrderID: request.OrderID, Track: request.Track},
		Metadata: metadata{
			Name:      "custody-" + request.OrderID,
			KeyValues: map[string]string{"idempotency_key": request.IdempotencyKey},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+pinJSONPath, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.JWT != "" {
		req.Header.Set("Authorization", "Bearer "+c.JWT)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var out pinResponse
	if err = json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode pin response: %w", err)
	}
	return out.IpfsHash, nil
}
