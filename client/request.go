package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrConnectivity is returned when the server could not be reached or sent
	// back something other than the api's json. Nothing is retried.
	ErrConnectivity = errors.New("unable to reach the civicore server")

	ErrInvalid      = errors.New("invalid request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// APIError is a failure reported by the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned status %d: %v", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return ErrInvalid
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	}
	return nil
}

// apiCall is one round trip to the registry api.
type apiCall struct {
	http   *http.Client
	method string
	url    string
	token  string
	query  url.Values
	input  any
}

func newApiCall(client *http.Client, method, baseUrl, path string) *apiCall {
	return &apiCall{
		http:   client,
		method: method,
		url:    strings.TrimRight(baseUrl, "/") + path,
		query:  url.Values{},
	}
}

func (c *apiCall) WithToken(token string) *apiCall {
	c.token = token
	return c
}

func (c *apiCall) WithQuery(key, value string) *apiCall {
	c.query.Set(key, value)
	return c
}

func (c *apiCall) WithBody(input any) *apiCall {
	c.input = input
	return c
}

func (c *apiCall) newRequest() (*http.Request, error) {
	var body io.Reader
	if c.input != nil {
		data, err := json.Marshal(c.input)
		if err != nil {
			return nil, fmt.Errorf("unable to encode body for %v %v: %w", c.method, c.url, err)
		}
		body = bytes.NewReader(data)
	}

	target := c.url
	if len(c.query) > 0 {
		target += "?" + c.query.Encode()
	}

	req, err := http.NewRequest(c.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("unable to build request %v %v: %w", c.method, c.url, err)
	}
	if c.input != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// Into sends the call and decodes a successful response into out, which may be
// nil when the caller only needs the status.
func (c *apiCall) Into(out any) error {
	req, err := c.newRequest()
	if err != nil {
		return err
	}

	started := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v %v: %v", ErrConnectivity, c.method, c.url, err)
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response of %v %v: %v", ErrConnectivity, c.method, c.url, err)
	}

	slog.Debug("api call", "method", c.method, "url", c.url, "status", res.StatusCode, "elapsed", time.Since(started))

	if res.StatusCode != http.StatusOK {
		return decodeFailure(res.StatusCode, payload)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: unexpected response body from %v %v: %v", ErrConnectivity, c.method, c.url, err)
	}
	return nil
}

func decodeFailure(status int, payload []byte) error {
	var failure struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &failure); err != nil || failure.Message == "" {
		failure.Message = strings.TrimSpace(string(payload))
	}
	return &APIError{Status: status, Message: failure.Message}
}
