// Package hostclient talks to the application manager REST handlers of the
// host content-management server.
package hostclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/buger/jsonparser"
	"github.com/marcus/appman/internal/config"
	"github.com/marcus/appman/internal/logging"
	"github.com/marcus/appman/internal/models"
)

// REST operation names, appended to the plugin endpoint.
const (
	OpAppList   = "applist"
	OpAppDetail = "appdetail"
	OpTopicList = "topiclist"
	OpAppAction = "appaction"
)

// Sentinel errors for common HTTP error classes.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrMalformed    = errors.New("malformed response")
)

// HostError is a failure the host described in a `{data: message}` body.
type HostError struct {
	StatusCode int
	Message    string
}

func (e *HostError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	return e.Message
}

// Client is an HTTP client for the application manager handlers.
type Client struct {
	Settings config.Settings
	HTTP     *http.Client
	Logger   *slog.Logger
}

// New creates a new host client.
func New(settings config.Settings, logger *slog.Logger) *Client {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{
		Settings: settings,
		HTTP:     &http.Client{Timeout: settings.Timeout},
		Logger:   logger,
	}
}

// ListApplications fetches the mapping appId -> "managed"|"unmanaged",
// returned alphabetically by id. Unknown states count as unmanaged.
func (c *Client) ListApplications(ctx context.Context) ([]models.Application, error) {
	body, err := c.get(ctx, OpAppList, nil)
	if err != nil {
		return nil, err
	}

	var raw map[string]string
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, OpAppList, err)
	}

	apps := make([]models.Application, 0, len(raw))
	for id, state := range raw {
		st := models.StateUnmanaged
		if models.ManagementState(state) == models.StateManaged {
			st = models.StateManaged
		}
		apps = append(apps, models.Application{ID: id, State: st})
	}
	models.SortApplications(apps)
	return apps, nil
}

// AppDetail fetches the description and action catalog of one application.
// Action values are either descriptor objects or booleans; anything else is malformed.
func (c *Client) AppDetail(ctx context.Context, name string) (*models.AppDetail, error) {
	body, err := c.get(ctx, OpAppDetail, url.Values{"name": {name}})
	if err != nil {
		return nil, err
	}
	return decodeAppDetail(name, body)
}

func decodeAppDetail(name string, body []byte) (*models.AppDetail, error) {
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: %s: invalid JSON", ErrMalformed, OpAppDetail)
	}

	detail := &models.AppDetail{Name: name}
	if desc, err := jsonparser.GetString(body, "description"); err == nil {
		detail.Description = desc
	}

	actions, dataType, _, err := jsonparser.Get(body, "actions")
	if err != nil || dataType != jsonparser.Object {
		return nil, fmt.Errorf("%w: %s: missing actions object", ErrMalformed, OpAppDetail)
	}

	err = jsonparser.ObjectEach(actions, func(key, value []byte, vt jsonparser.ValueType, _ int) error {
		entry := models.ActionEntry{Name: string(key)}
		switch vt {
		case jsonparser.Boolean:
			b, perr := jsonparser.ParseBoolean(value)
			if perr != nil {
				return perr
			}
			entry.Toggle = b
		case jsonparser.Object:
			// Field type mismatches leave zero values here; the catalog
			// validates Raw and reports them as configuration errors.
			var d models.ActionDescriptor
			_ = json.Unmarshal(value, &d)
			entry.Descriptor = &d
			entry.Raw = append([]byte(nil), value...)
		default:
			return fmt.Errorf("action %q: unexpected %s value", entry.Name, vt)
		}
		detail.Actions = append(detail.Actions, entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, OpAppDetail, err)
	}

	return detail, nil
}

// ListTopics fetches the topic ids of a source location.
func (c *Client) ListTopics(ctx context.Context, webname string) ([]string, error) {
	body, err := c.get(ctx, OpTopicList, url.Values{"webname": {webname}})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Topics []string `json:"topics"`
		Data   *string  `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, OpTopicList, err)
	}
	if resp.Topics == nil && resp.Data != nil {
		return nil, &HostError{Message: *resp.Data}
	}
	return resp.Topics, nil
}

// RunAction posts a validated request. Source, destination and type are
// omitted when empty; the topic lists are always sent as JSON arrays.
func (c *Client) RunAction(ctx context.Context, req models.ActionRequest) (*models.ActionResponse, error) {
	form, err := EncodeRequest(req)
	if err != nil {
		return nil, err
	}

	body, err := c.do(ctx, http.MethodPost, OpAppAction, nil, form)
	if err != nil {
		return nil, err
	}

	var resp models.ActionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, OpAppAction, err)
	}
	return &resp, nil
}

// EncodeRequest converts a request to the form fields the host expects.
func EncodeRequest(req models.ActionRequest) (url.Values, error) {
	linkList, err := json.Marshal(nonNil(req.LinkList))
	if err != nil {
		return nil, fmt.Errorf("marshal linklist: %w", err)
	}
	copyList, err := json.Marshal(nonNil(req.CopyList))
	if err != nil {
		return nil, fmt.Errorf("marshal copylist: %w", err)
	}

	form := url.Values{}
	form.Set("name", req.App)
	form.Set("action", req.Action)
	if req.Source != "" {
		form.Set("from", req.Source)
	}
	if req.Destination != "" {
		form.Set("to", req.Destination)
	}
	if req.Type != "" {
		form.Set("type", string(req.Type))
	}
	form.Set("linklist", string(linkList))
	form.Set("copylist", string(copyList))
	return form, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// --- HTTP helpers ---

func (c *Client) get(ctx context.Context, op string, params url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodGet, op, params, nil)
}

func (c *Client) do(ctx context.Context, method, op string, params, form url.Values) ([]byte, error) {
	ctx, reqID := logging.WithRequestID(ctx)

	target := c.Settings.Endpoint(op)
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var bodyReader io.Reader
	if form != nil {
		bodyReader = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.Logger.WarnContext(ctx, "host request failed", "op", op, "err", err)
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	c.Logger.DebugContext(ctx, "host request",
		"op", op, "method", method, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode >= 400 {
		msg, _ := jsonparser.GetString(respBody, "data")
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return nil, fmt.Errorf("%w: %s", ErrUnauthorized, msg)
		case http.StatusForbidden:
			return nil, fmt.Errorf("%w: %s", ErrForbidden, msg)
		case http.StatusNotFound:
			return nil, fmt.Errorf("%w: %s", ErrNotFound, msg)
		}
		if msg != "" {
			return nil, &HostError{StatusCode: resp.StatusCode, Message: msg}
		}
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	return respBody, nil
}
