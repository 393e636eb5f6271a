package matrix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// Event represents a raw Matrix room event
type Event struct {
	Type           string  `json:"type"`
	EventID        string  `json:"event_id"`
	Sender         string  `json:"sender"`
	OriginServerTS int64   `json:"origin_server_ts"` // milliseconds
	Content        Content `json:"content"`
}

// Content is the content block of a message event
type Content struct {
	MsgType string `json:"msgtype"`
	Body    string `json:"body"`
}

// LoginResult is the response of a password login
type LoginResult struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	DeviceID    string `json:"device_id"`
}

// RoomInfo is a room as returned by the Synapse admin directory
type RoomInfo struct {
	RoomID        string `json:"room_id"`
	Name          string `json:"name"`
	Creator       string `json:"creator"`
	JoinedMembers int    `json:"joined_members"`
	CreationTS    int64  `json:"creation_ts"`
}

// Client is a Matrix/Synapse API client
type Client struct {
	homeserver string
	username   string
	password   string
	httpCli    *http.Client
	token      string // cached access token; refresh is the caller's concern
}

// NewClient creates a new Matrix client
func NewClient(homeserver, username, password string) *Client {
	return &Client{
		homeserver: homeserver,
		username:   username,
		password:   password,
		httpCli:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Login authenticates against the homeserver and caches the access token
func (c *Client) Login(ctx context.Context) (*LoginResult, error) {
	payload := map[string]any{
		"type": "m.login.password",
		"identifier": map[string]string{
			"type": "m.id.user",
			"user": c.username,
		},
		"password": c.password,
	}

	var result LoginResult
	if err := c.doJSON(ctx, http.MethodPost, c.homeserver+"/_matrix/client/v3/login", payload, &result); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	c.token = result.AccessToken
	return &result, nil
}

// AccessToken returns the cached access token, logging in if necessary
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	if c.token == "" {
		if _, err := c.Login(ctx); err != nil {
			return "", err
		}
	}
	return c.token, nil
}

// messagesResponse is one page of the /messages endpoint
type messagesResponse struct {
	Chunk []Event `json:"chunk"`
	End   string  `json:"end"`
}

// Messages fetches room message events, paginating backward from the most
// recent message until the server has no more pages or maxEvents message
// events have been collected. Events come back newest first, exactly as
// the transport delivers them; ordering is the caller's concern.
func (c *Client) Messages(ctx context.Context, roomID string, pageSize, maxEvents int) ([]Event, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	base := fmt.Sprintf("%s/_matrix/client/v3/rooms/%s/messages", c.homeserver, url.PathEscape(roomID))

	var events []Event
	from := ""
	for {
		q := url.Values{}
		q.Set("dir", "b")
		q.Set("limit", fmt.Sprintf("%d", pageSize))
		if from != "" {
			q.Set("from", from)
		}

		var page messagesResponse
		if err := c.doAuthJSON(ctx, http.MethodGet, base+"?"+q.Encode(), token, nil, &page); err != nil {
			return nil, fmt.Errorf("fetch messages: %w", err)
		}

		if len(page.Chunk) == 0 {
			break
		}

		for _, ev := range page.Chunk {
			if ev.Type != "m.room.message" {
				continue
			}
			events = append(events, ev)
		}

		if page.End == "" || len(events) >= maxEvents {
			break
		}
		from = page.End
	}

	return events, nil
}

// Send sends a text message and returns the event ID. Each send uses a
// fresh transaction ID so the homeserver can deduplicate retries.
func (c *Client) Send(ctx context.Context, roomID, body string) (string, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return "", err
	}

	txnID := uuid.NewString()
	endpoint := fmt.Sprintf("%s/_matrix/client/v3/rooms/%s/send/m.room.message/%s",
		c.homeserver, url.PathEscape(roomID), txnID)

	payload := map[string]string{
		"msgtype": "m.text",
		"body":    body,
	}

	var result struct {
		EventID string `json:"event_id"`
	}
	if err := c.doAuthJSON(ctx, http.MethodPut, endpoint, token, payload, &result); err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	return result.EventID, nil
}

// UserDisplayName resolves a user's display name. A missing profile is
// not an error; it returns "".
func (c *Client) UserDisplayName(ctx context.Context, userID string) (string, error) {
	endpoint := fmt.Sprintf("%s/_matrix/client/v3/profile/%s/displayname",
		c.homeserver, url.PathEscape(userID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return "", fmt.Errorf("lookup display name: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("lookup display name: status %d", resp.StatusCode)
	}

	var result struct {
		DisplayName string `json:"displayname"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode display name: %w", err)
	}
	return result.DisplayName, nil
}

// adminRoomsResponse is one page of the Synapse admin room directory
type adminRoomsResponse struct {
	Rooms     []RoomInfo `json:"rooms"`
	NextBatch string     `json:"next_batch"`
}

// AdminRooms lists all rooms known to the homeserver, draining pagination
func (c *Client) AdminRooms(ctx context.Context) ([]RoomInfo, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	var rooms []RoomInfo
	nextBatch := ""
	for {
		q := url.Values{}
		q.Set("limit", "100")
		if nextBatch != "" {
			q.Set("from", nextBatch)
		}

		var page adminRoomsResponse
		endpoint := c.homeserver + "/_synapse/admin/v1/rooms?" + q.Encode()
		if err := c.doAuthJSON(ctx, http.MethodGet, endpoint, token, nil, &page); err != nil {
			return nil, fmt.Errorf("list rooms: %w", err)
		}

		rooms = append(rooms, page.Rooms...)
		if page.NextBatch == "" {
			break
		}
		nextBatch = page.NextBatch
	}

	return rooms, nil
}

// doJSON performs an unauthenticated JSON request
func (c *Client) doJSON(ctx context.Context, method, endpoint string, payload, out any) error {
	return c.doAuthJSON(ctx, method, endpoint, "", payload, out)
}

// doAuthJSON performs a JSON request with optional bearer auth
func (c *Client) doAuthJSON(ctx context.Context, method, endpoint, token string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
