package channelapi

import (
	"bytes"
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

	"amoita/internal/domain/channel"
	"amoita/internal/domain/shared/daterange"
	"amoita/internal/infra/obs"
)

// APIError carries the channel manager's failure response.
type APIError struct {
	Message    string
	StatusCode int
	Errors     []string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("channelapi: %s (status %d)", e.Message, e.StatusCode)
	}
	return "channelapi: " + e.Message
}

// Client talks to the channel manager's REST API. It performs no retries;
// a failed call surfaces as an *APIError or transport error to the caller.
type Client struct {
	HTTP        *http.Client
	BaseURL     string
	AccessToken string
	APISecret   string
	Logger      *slog.Logger
}

type Options struct {
	BaseURL     string
	AccessToken string
	APISecret   string
	Timeout     time.Duration
	Logger      *slog.Logger
}

func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("channelapi: base url required")
	}
	if opts.AccessToken == "" {
		return nil, errors.New("channelapi: access token required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		HTTP:        &http.Client{Timeout: timeout},
		BaseURL:     strings.TrimRight(opts.BaseURL, "/"),
		AccessToken: opts.AccessToken,
		APISecret:   opts.APISecret,
		Logger:      opts.Logger,
	}, nil
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Errors  []string        `json:"errors"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}
	endpoint := c.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Hostex-Access-Token", c.AccessToken)
	if c.APISecret != "" {
		req.Header.Set("X-API-Secret", c.APISecret)
	}
	// carry the inbound request id through to the channel manager
	if id := obs.RequestIDFromContext(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("channelapi: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("channelapi: reading response: %w", err)
	}

	var envelope apiEnvelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &envelope); err != nil && resp.StatusCode < 300 {
			return fmt.Errorf("channelapi: decoding response: %w", err)
		}
	}

	if resp.StatusCode >= 300 {
		msg := envelope.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		if c.Logger != nil {
			c.Logger.Warn("channel api error", "method", method, "path", path, "status", resp.StatusCode, "message", msg)
		}
		return &APIError{Message: msg, StatusCode: resp.StatusCode, Errors: envelope.Errors}
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("channelapi: decoding data: %w", err)
		}
	}
	return nil
}

func (c *Client) GetProperties(ctx context.Context) ([]channel.Property, error) {
	var docs []propertyDoc
	if err := c.do(ctx, http.MethodGet, "/properties", nil, nil, &docs); err != nil {
		return nil, err
	}
	out := make([]channel.Property, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

func (c *Client) GetProperty(ctx context.Context, id string) (channel.Property, error) {
	var doc propertyDoc
	if err := c.do(ctx, http.MethodGet, "/properties/"+url.PathEscape(id), nil, nil, &doc); err != nil {
		return channel.Property{}, err
	}
	return doc.toDomain(), nil
}

func (c *Client) GetReservations(ctx context.Context, propertyID string) ([]channel.Reservation, error) {
	query := url.Values{}
	if propertyID != "" {
		query.Set("propertyId", propertyID)
	}
	var docs []reservationDoc
	if err := c.do(ctx, http.MethodGet, "/reservations", query, nil, &docs); err != nil {
		return nil, err
	}
	out := make([]channel.Reservation, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

func (c *Client) GetReservation(ctx context.Context, id string) (channel.Reservation, error) {
	var doc reservationDoc
	if err := c.do(ctx, http.MethodGet, "/reservations/"+url.PathEscape(id), nil, nil, &doc); err != nil {
		return channel.Reservation{}, err
	}
	return doc.toDomain(), nil
}

func (c *Client) GetAvailability(ctx context.Context, propertyID string, start, end time.Time) ([]channel.Availability, error) {
	query := url.Values{}
	query.Set("propertyId", propertyID)
	query.Set("startDate", daterange.Key(start))
	query.Set("endDate", daterange.Key(end))
	var docs []availabilityDoc
	if err := c.do(ctx, http.MethodGet, "/availability", query, nil, &docs); err != nil {
		return nil, err
	}
	out := make([]channel.Availability, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

func (c *Client) UpdateAvailability(ctx context.Context, propertyID string, items []channel.Availability) error {
	docs := make([]availabilityUpdateDoc, len(items))
	for i, item := range items {
		docs[i] = availabilityUpdateDoc{
			Date:      daterange.Key(item.Date),
			Available: item.Available,
			Price:     item.Price,
			MinStay:   item.MinStay,
			Currency:  item.Currency,
		}
	}
	body := map[string]any{"propertyId": propertyID, "availability": docs}
	return c.do(ctx, http.MethodPost, "/availability", nil, body, nil)
}

func (c *Client) GetChannels(ctx context.Context) ([]channel.Channel, error) {
	var docs []channelDoc
	if err := c.do(ctx, http.MethodGet, "/channels", nil, nil, &docs); err != nil {
		return nil, err
	}
	out := make([]channel.Channel, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

func (c *Client) ConnectChannel(ctx context.Context, propertyID, channelID string, credentials map[string]string) error {
	path := fmt.Sprintf("/properties/%s/channels/%s/connect", url.PathEscape(propertyID), url.PathEscape(channelID))
	return c.do(ctx, http.MethodPost, path, nil, credentials, nil)
}

func (c *Client) DisconnectChannel(ctx context.Context, propertyID, channelID string) error {
	path := fmt.Sprintf("/properties/%s/channels/%s/disconnect", url.PathEscape(propertyID), url.PathEscape(channelID))
	return c.do(ctx, http.MethodPost, path, nil, nil, nil)
}

func (c *Client) SendMessage(ctx context.Context, reservationID, content, templateID string) error {
	body := map[string]any{"message": content}
	if templateID != "" {
		body["template"] = templateID
	}
	return c.do(ctx, http.MethodPost, "/reservations/"+url.PathEscape(reservationID)+"/messages", nil, body, nil)
}

func (c *Client) TriggerSync(ctx context.Context, propertyID string) error {
	return c.do(ctx, http.MethodPost, "/properties/"+url.PathEscape(propertyID)+"/sync", nil, nil, nil)
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

var _ channel.API = (*Client)(nil)
