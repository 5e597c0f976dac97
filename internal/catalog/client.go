// Package catalog implements the client side of the private catalog
// service: session auth, ownership-list harvesting, paginated search,
// and torrent-file retrieval.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pedroespecial101/mam-downloader/internal/logctx"
)

// Service is the surface consumed by the workflows. *Client implements
// it; InstrumentedClient decorates it with telemetry.
type Service interface {
	UserDetails(ctx context.Context) (*User, error)
	HarvestListIDs(ctx context.Context, user *User, listType string) ([]string, error)
	Search(ctx context.Context, req SearchRequest) ([]Candidate, error)
	FetchTorrent(ctx context.Context, torrentID, outputDir string) (string, error)
	FetchBatch(ctx context.Context, torrentIDs []string, destDir string, opts BatchOptions) ([]string, error)
}

type Client struct {
	baseURL    string
	sessionID  string
	httpClient *http.Client
}

var _ Service = (*Client)(nil)

func NewClient(baseURL, sessionID string) *Client {
	return &Client{
		baseURL:    baseURL,
		sessionID:  sessionID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// ListStat is the count/limit pair the service reports per list type.
type ListStat struct {
	Count int `json:"count"`
	Limit int `json:"limit"`
}

// User is the session's account summary. List-type counts for arbitrary
// list names are kept alongside the named fields.
type User struct {
	UID             int64   `json:"uid"`
	Unsat           ListStat `json:"unsat"`
	Uploaded        string  `json:"uploaded"`
	Downloaded      string  `json:"downloaded"`
	UploadedBytes   int64   `json:"uploaded_bytes"`
	DownloadedBytes int64   `json:"downloaded_bytes"`

	lists map[string]ListStat
}

// ListCount returns the service-reported item count for a list type,
// used to decide whether a cached harvest is stale.
func (u *User) ListCount(name string) int {
	return u.lists[name].Count
}

func (u *User) UnmarshalJSON(data []byte) error {
	type alias User

	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}

	*u = User(a)
	u.lists = make(map[string]ListStat)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	for name, raw := range fields {
		if len(raw) == 0 || raw[0] != '{' {
			continue
		}

		var stat ListStat
		if err := json.Unmarshal(raw, &stat); err == nil {
			u.lists[name] = stat
		}
	}

	return nil
}

// UserDetails fetches the account summary. A non-success status means the
// session cookie is invalid and the whole run should stop.
func (c *Client) UserDetails(ctx context.Context) (*User, error) {
	ctx = logctx.WithOperation(ctx, "user_details")
	logger := logctx.LoggerFromContext(ctx)

	resp, err := c.get(ctx, "/jsonLoad.php?snatch_summary")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user details: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.ErrorContext(ctx, "non-200 response", "status", resp.StatusCode)

		return nil, &AuthenticationError{Operation: "user_details", StatusCode: resp.StatusCode}
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user details: %w", err)
	}

	logger.DebugContext(ctx, "fetched user details", "uid", user.UID, "unsat", user.Unsat.Count, "unsat_limit", user.Unsat.Limit)

	return &user, nil
}

// SpendBonusPoints buys the maximum affordable upload credit with free
// bonus points. Returns the purchased amount and whether the purchase
// went through.
func (c *Client) SpendBonusPoints(ctx context.Context) (string, bool, error) {
	ctx = logctx.WithOperation(ctx, "bonus_buy")
	logger := logctx.LoggerFromContext(ctx)

	q := url.Values{}
	q.Set("spendtype", "upload")
	q.Set("amount", "Max Affordable ")

	resp, err := c.get(ctx, "/json/bonusBuy.php/?"+q.Encode())
	if err != nil {
		return "", false, fmt.Errorf("failed to spend bonus points: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false, &NetworkError{Operation: "bonus_buy", StatusCode: resp.StatusCode}
	}

	var result struct {
		Success bool        `json:"success"`
		Amount  json.Number `json:"amount"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", false, fmt.Errorf("failed to decode bonus buy response: %w", err)
	}

	logger.DebugContext(ctx, "bonus buy result", "success", result.Success, "amount", result.Amount.String())

	return result.Amount.String(), result.Success, nil
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.setSession(req)

	return c.httpClient.Do(req)
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	c.setSession(req)

	return c.httpClient.Do(req)
}

func (c *Client) setSession(req *http.Request) {
	req.Header.Set("Cookie", "mam_id="+c.sessionID)
}

func drainBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))

	return string(b)
}
