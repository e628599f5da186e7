// Copyright 2026 The droply Authors
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

package storage

import (
	"context"
	"time"
)

// ShareRecord is the metadata kept for a time-limited share key. The
// bytes themselves stay on the local filesystem; this index only maps a
// short key to the committed storage name.
type ShareRecord struct {
	Name      string    `json:"name"`
	MediaType string    `json:"mediaType"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// ShareTTL is how long a share key stays resolvable.
const ShareTTL = 25 * time.Minute

// Store is the interface for the share-key metadata index, decoupling
// the handlers from the concrete backend.
type Store interface {
	// SaveShare stores the record under key with ShareTTL.
	SaveShare(ctx context.Context, key string, rec *ShareRecord) error

	// GetShare retrieves the record for key, or an error if the key is
	// unknown or expired.
	GetShare(ctx context.Context, key string) (*ShareRecord, error)
}
