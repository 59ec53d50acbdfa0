// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package repository

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// defaultMaxAttempts bounds retries for a single API call.
const defaultMaxAttempts uint = 3

// defaultRequestTimeout bounds one HTTP round trip, including the file
// content PUT.
const defaultRequestTimeout = 60 * time.Second

// responseTextLimit caps how much of an error response body is carried
// into error messages and logs.
const responseTextLimit = 512

// Client talks to a records platform REST API using a bearer token.
type Client struct {
	baseURL     string
	apiURL      string
	token       string
	httpClient  *http.Client
	maxAttempts uint
	logger      *slog.Logger
}

// ClientOption configures a Client during construction.
type ClientOption func(*Client) error

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) error {
		if httpClient != nil {
			c.httpClient = httpClient
		}
		return nil
	}
}

// WithInsecureTLS disables certificate verification, for development
// servers with self-signed certificates.
func WithInsecureTLS() ClientOption {
	return func(c *Client) error {
		c.httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
		return nil
	}
}

// WithMaxAttempts sets the retry budget per API call.
func WithMaxAttempts(attempts uint) ClientOption {
	return func(c *Client) error {
		if attempts > 0 {
			c.maxAttempts = attempts
		}
		return nil
	}
}

// WithClientLogger sets the logger used for request diagnostics.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) error {
		if logger != nil {
			c.logger = logger.With("component", "repository")
		}
		return nil
	}
}

// NewClient creates a records platform client. The bearer token is read
// from tokenFile; a missing token file is an immediate error.
func NewClient(baseURL, tokenFile string, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}

	raw, err := os.ReadFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTokenNotFound, tokenFile, err)
	}

	base := strings.TrimRight(baseURL, "/")
	client := &Client{
		baseURL:     base,
		apiURL:      base + "/api",
		token:       strings.TrimSpace(string(raw)),
		httpClient:  &http.Client{Timeout: defaultRequestTimeout},
		maxAttempts: defaultMaxAttempts,
		logger:      slog.Default().With("component", "repository"),
	}

	for _, opt := range opts {
		if err := opt(client); err != nil {
			return nil, err
		}
	}

	return client, nil
}

// draftRequest is the payload for creating a public draft with files
// enabled.
type draftRequest struct {
	Access   draftAccess     `json:"access"`
	Files    draftFiles      `json:"files"`
	Metadata *RecordMetadata `json:"metadata"`
}

type draftAccess struct {
	Record string `json:"record"`
	Files  string `json:"files"`
}

type draftFiles struct {
	Enabled bool `json:"enabled"`
}

type recordResponse struct {
	Id string `json:"id"`
}

// CreateDraft creates a draft record and returns its identifier.
func (c *Client) CreateDraft(ctx context.Context, metadata *RecordMetadata) (string, error) {
	payload := draftRequest{
		Access:   draftAccess{Record: "public", Files: "public"},
		Files:    draftFiles{Enabled: true},
		Metadata: metadata,
	}

	var draft recordResponse
	url := c.apiURL + "/records"
	if err := c.doJSON(ctx, http.MethodPost, url, payload, &draft); err != nil {
		return "", fmt.Errorf("failed to create draft: %w", err)
	}
	if draft.Id == "" {
		return "", fmt.Errorf("%w: draft response missing id", ErrRequestFailed)
	}
	return draft.Id, nil
}

// UploadFile attaches content to a draft record under filename. The
// platform requires three steps: initialize the file entry, send the
// bytes, then commit.
func (c *Client) UploadFile(ctx context.Context, recordId, filename string, content []byte) error {
	initURL := fmt.Sprintf("%s/records/%s/draft/files", c.apiURL, recordId)
	if err := c.doJSON(ctx, http.MethodPost, initURL, []map[string]string{{"key": filename}}, nil); err != nil {
		return fmt.Errorf("failed to initialize file %s: %w", filename, err)
	}

	contentURL := fmt.Sprintf("%s/records/%s/draft/files/%s/content", c.apiURL, recordId, filename)
	if err := c.putContent(ctx, contentURL, content); err != nil {
		return fmt.Errorf("failed to upload content for %s: %w", filename, err)
	}

	commitURL := fmt.Sprintf("%s/records/%s/draft/files/%s/commit", c.apiURL, recordId, filename)
	if err := c.doJSON(ctx, http.MethodPost, commitURL, nil, nil); err != nil {
		return fmt.Errorf("failed to commit file %s: %w", filename, err)
	}

	return nil
}

// Publish publishes a draft and returns the published record id.
func (c *Client) Publish(ctx context.Context, recordId string) (string, error) {
	var published recordResponse
	url := fmt.Sprintf("%s/records/%s/draft/actions/publish", c.apiURL, recordId)
	if err := c.doJSON(ctx, http.MethodPost, url, nil, &published); err != nil {
		return "", fmt.Errorf("failed to publish draft %s: %w", recordId, err)
	}
	if published.Id == "" {
		published.Id = recordId
	}
	return published.Id, nil
}

// RecordURL returns the public URL of a published record.
func (c *Client) RecordURL(recordId string) string {
	return fmt.Sprintf("%s/records/%s", c.baseURL, recordId)
}

// doJSON executes one JSON API call with retries. Server errors and
// transport failures are retried with backoff, client errors are not.
func (c *Client) doJSON(ctx context.Context, method, url string, payload, out any) error {
	var body []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode payload: %w", err)
		}
		body = encoded
	}

	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Authorization", "Bearer "+c.token)
			req.Header.Set("Content-Type", "application/json")

			return c.execute(req, out)
		},
		retry.Context(ctx),
		retry.Attempts(c.maxAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("retrying request",
				"method", method,
				"url", url,
				"attempt", n+1,
				"error", err)
		}),
	)
}

// putContent sends raw bytes to a content endpoint with retries.
func (c *Client) putContent(ctx context.Context, url string, content []byte) error {
	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(content))
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Authorization", "Bearer "+c.token)
			req.Header.Set("Content-Type", "application/octet-stream")

			return c.execute(req, nil)
		},
		retry.Context(ctx),
		retry.Attempts(c.maxAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("retrying content upload",
				"url", url,
				"attempt", n+1,
				"error", err)
		}),
	)
}

func (c *Client) execute(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		detail := responseText(resp.Body)
		err := fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.StatusCode, detail)
		if resp.StatusCode < 500 {
			return retry.Unrecoverable(err)
		}
		return err
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return retry.Unrecoverable(fmt.Errorf("failed to decode response: %w", err))
		}
	}
	return nil
}

// responseText reads a truncated error body for diagnostics.
func responseText(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, responseTextLimit))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}
