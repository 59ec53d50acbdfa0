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

import "errors"

var (
	// ErrBaseURLRequired is returned when a client is created without a base URL.
	ErrBaseURLRequired = errors.New("base URL is required")

	// ErrTokenNotFound is returned when the API token file cannot be read.
	ErrTokenNotFound = errors.New("API token not found")

	// ErrClientRequired is returned when an uploader is created without a client.
	ErrClientRequired = errors.New("client is required")

	// ErrRequestFailed is returned when the records platform rejects a request.
	ErrRequestFailed = errors.New("request failed")
)
