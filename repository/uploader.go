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
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Uploader publishes a local book collection to the records platform.
// Failures on individual books are logged and skipped so one bad book
// cannot abort a batch.
type Uploader struct {
	client *Client
	logger *slog.Logger
}

// UploaderOption configures an Uploader during construction.
type UploaderOption func(*Uploader) error

// WithUploaderLogger sets the logger used for upload progress.
func WithUploaderLogger(logger *slog.Logger) UploaderOption {
	return func(u *Uploader) error {
		if logger != nil {
			u.logger = logger.With("component", "uploader")
		}
		return nil
	}
}

// NewUploader creates an Uploader over the given client.
func NewUploader(client *Client, opts ...UploaderOption) (*Uploader, error) {
	if client == nil {
		return nil, ErrClientRequired
	}

	uploader := &Uploader{
		client: client,
		logger: slog.Default().With("component", "uploader"),
	}

	for _, opt := range opts {
		if err := opt(uploader); err != nil {
			return nil, err
		}
	}

	return uploader, nil
}

// Summary reports the outcome of a batch upload.
type Summary struct {
	Total      int
	Successful int
	Failed     []string
}

// UploadAll publishes every book under dataDir. The directory holds
// metadata/<name>.json catalog entries paired with books/<name>.txt
// text files. A non-positive limit uploads everything.
func (u *Uploader) UploadAll(ctx context.Context, dataDir string, limit int) (*Summary, error) {
	metadataDir := filepath.Join(dataDir, "metadata")
	entries, err := filepath.Glob(filepath.Join(metadataDir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata files: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no metadata files found in %s", metadataDir)
	}

	sort.Strings(entries)
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}

	summary := &Summary{Total: len(entries)}
	u.logger.Info("starting upload", "books", len(entries))

	for _, metadataPath := range entries {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		name := strings.TrimSuffix(filepath.Base(metadataPath), ".json")
		if err := u.uploadBook(ctx, dataDir, name, metadataPath); err != nil {
			u.logger.Warn("skipping book", "name", name, "error", err)
			summary.Failed = append(summary.Failed, name)
			continue
		}
		summary.Successful++
	}

	u.logger.Info("upload complete",
		"successful", summary.Successful,
		"failed", len(summary.Failed),
		"total", summary.Total)

	return summary, nil
}

func (u *Uploader) uploadBook(ctx context.Context, dataDir, name, metadataPath string) error {
	raw, err := os.ReadFile(metadataPath)
	if err != nil {
		return fmt.Errorf("failed to read metadata: %w", err)
	}

	var book BookMetadata
	if err := json.Unmarshal(raw, &book); err != nil {
		return fmt.Errorf("failed to parse metadata: %w", err)
	}

	textPath := filepath.Join(dataDir, "books", name+".txt")
	contents, err := os.ReadFile(textPath)
	if err != nil {
		return fmt.Errorf("failed to read book text: %w", err)
	}

	u.logger.Info("uploading book", "name", name, "title", book.Title)

	draftId, err := u.client.CreateDraft(ctx, NewRecordMetadata(&book))
	if err != nil {
		return err
	}

	if err := u.client.UploadFile(ctx, draftId, name+".txt", contents); err != nil {
		return err
	}

	publishedId, err := u.client.Publish(ctx, draftId)
	if err != nil {
		return err
	}

	u.logger.Info("published book",
		"name", name,
		"record", publishedId,
		"url", u.client.RecordURL(publishedId))

	return nil
}
