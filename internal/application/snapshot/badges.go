package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type Badge struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Color string `json:"color,omitempty"`
}

// BadgeSource pulls achievement badges for a subject from a third-party
// badge API and normalizes them into the snapshot payload.
type BadgeSource struct {
	client  *http.Client
	url     string
	subject string
}

func NewBadgeSource(client *http.Client, url, subject string) *BadgeSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &BadgeSource{client: client, url: url, subject: subject}
}

func (s *BadgeSource) ID() string { return "badges:" + s.subject }

func (s *BadgeSource) Fetch(ctx context.Context) ([]byte, error) {
	body, err := fetchJSON(ctx, s.client, s.url)
	if err != nil {
		return nil, err
	}

	var upstream []Badge
	if err := json.Unmarshal(body, &upstream); err != nil {
		return nil, fmt.Errorf("badge api returned malformed payload: %w", err)
	}

	// Re-marshal so the committed bytes are ours, not whatever extra
	// fields the upstream happened to send.
	return json.Marshal(upstream)
}

func (s *BadgeSource) Validate(raw []byte) error {
	var badges []Badge
	if err := json.Unmarshal(raw, &badges); err != nil {
		return fmt.Errorf("badge payload unparsable: %w", err)
	}
	if len(badges) == 0 {
		return fmt.Errorf("badge payload empty")
	}
	for i, b := range badges {
		if b.Label == "" || b.Value == "" {
			return fmt.Errorf("badge %d missing label or value", i)
		}
	}
	return nil
}

// fetchJSON does one upstream GET. Network faults and 5xx responses are
// transient; a 4xx means the request itself is wrong and retrying would
// not help.
func fetchJSON(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, Transient(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, Transient(fmt.Errorf("upstream returned %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, Transient(err)
	}
	return body, nil
}
