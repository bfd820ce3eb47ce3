package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Remote is the REST API that owns events and users.
type Remote interface {
	FetchEvents(ctx context.Context) ([]Event, error)
	FetchEvent(ctx context.Context, id string) (*Event, error)
	UpdateEvent(ctx context.Context, event *Event) (*Event, error)
	CreateEvent(ctx context.Context, event *Event) (*Event, error)
	FetchUser(ctx context.Context, id string) (*User, error)
	Authenticate(ctx context.Context, email string, password string) (*Session, error)
}

type apiClient struct {
	baseURL string
	client  *http.Client
}

func NewAPIClient(baseURL string, timeout time.Duration) Remote {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *apiClient) FetchEvents(ctx context.Context) ([]Event, error) {
	var events []Event

	err := c.do(ctx, "fetch_events", http.MethodGet, "/events", nil, &events)
	if err != nil {
		return nil, err
	}

	if events == nil {
		events = []Event{}
	}

	return events, nil
}

func (c *apiClient) FetchEvent(ctx context.Context, id string) (*Event, error) {
	var event Event

	err := c.do(ctx, "fetch_event", http.MethodGet, "/events/"+url.PathEscape(id), nil, &event)
	if err != nil {
		return nil, err
	}

	return &event, nil
}

func (c *apiClient) UpdateEvent(ctx context.Context, event *Event) (*Event, error) {
	var updated Event

	err := c.do(ctx, "update_event", http.MethodPut, "/events/"+url.PathEscape(event.Id), event, &updated)
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

func (c *apiClient) CreateEvent(ctx context.Context, event *Event) (*Event, error) {
	var created Event

	err := c.do(ctx, "create_event", http.MethodPost, "/events", event, &created)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (c *apiClient) FetchUser(ctx context.Context, id string) (*User, error) {
	var user User

	err := c.do(ctx, "fetch_user", http.MethodGet, "/users/"+url.PathEscape(id), nil, &user)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (c *apiClient) Authenticate(ctx context.Context, email string, password string) (*Session, error) {
	var session Session

	body := map[string]string{"email": email, "password": password}

	err := c.do(ctx, "login", http.MethodPost, "/login", body, &session)
	if err != nil {
		return nil, err
	}

	return &session, nil
}

func (c *apiClient) do(ctx context.Context, op string, method string, path string, in any, out any) error {
	var body io.Reader

	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}

		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", op, err)
	}

	req.Header.Set("Accept", "application/json")

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Err: ErrNotFound}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		//nolint:errcheck
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Ctx(ctx).Debug().Str("op", op).Int("status", resp.StatusCode).Bytes("body", detail).Msg("remote call rejected")

		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}

	err = json.NewDecoder(resp.Body).Decode(out)
	if err != nil {
		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("malformed response: %w", err)}
	}

	return nil
}
