package dataverse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// maxResponseBytes bounds a JSON response body read into memory.
const maxResponseBytes = 32 << 20

// envelope is the common shape of every JSON response.
type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message json.RawMessage `json:"message"`
}

func (e envelope) message() string {
	if len(e.Message) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(e.Message, &s); err == nil {
		return s
	}
	return string(e.Message)
}

func (c *Client) url(path string, query url.Values) string {
	u := c.baseURL + "/api" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path, query), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("X-Dataverse-key", c.token)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// skip reports whether a request is suppressed by read-only mode, logging
// it if so.
func (c *Client) skip(method, path string, query url.Values, payload string) bool {
	if !c.readOnly || method == http.MethodGet {
		return false
	}
	c.log.Info("readonly: request not sent", "method", method, "url", c.url(path, query), "payload", payload)
	return true
}

// call sends in as JSON and decodes the data member of the response into
// out. Either may be nil.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}
	if c.skip(method, path, query, string(payload)) {
		return nil
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if out == nil {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", req.Method, req.URL, err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response data: %w", req.Method, req.URL, err)
	}
	return nil
}

// send executes req and turns a non-2xx status into an *APIError. The
// caller closes the body of a successful response.
func (c *Client) send(req *http.Request) (*http.Response, error) {
	c.log.Debug("sending request", "method", req.Method, "url", req.URL.String())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	c.log.Debug("received response", "method", req.Method, "url", req.URL.String(), "status", resp.Status)

	if resp.StatusCode/100 == 2 {
		return resp, nil
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	msg := ""
	var env envelope
	if json.Unmarshal(data, &env) == nil {
		msg = env.message()
	}
	if msg == "" {
		msg = strings.TrimSpace(string(data))
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return nil, &APIError{
		Method:     req.Method,
		URL:        req.URL.String(),
		StatusCode: resp.StatusCode,
		Message:    msg,
	}
}

// objectPath returns the path of a dataset or datafile given by database
// id or persistent id. Persistent ids go into the query string.
func objectPath(kind, id, suffix string) (string, url.Values) {
	if _, err := strconv.ParseInt(id, 10, 64); err == nil {
		return "/" + kind + "/" + id + suffix, nil
	}
	if suffix == "" {
		suffix = "/"
	}
	return "/" + kind + "/:persistentId" + suffix, url.Values{"persistentId": {id}}
}

// PersistentID joins the parts of a dataset persistent id, e.g.
// "doi:10.5072/FK2/J8SJZB".
func PersistentID(protocol, authority, identifier string) string {
	return protocol + ":" + authority + "/" + identifier
}
