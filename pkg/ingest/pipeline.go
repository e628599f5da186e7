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

package ingest

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/droply-io/droply/pkg/dlog"
	"github.com/droply-io/droply/pkg/util"
)

// Options is the immutable configuration for a Pipeline, constructed
// once at process start.
type Options struct {
	// StorageDir is the root committed files live under.
	StorageDir string
	// TempDir holds in-flight temp files. It must be on the same
	// volume as StorageDir so commits are single renames.
	TempDir string
	// MaxUploadBytes is the body size ceiling.
	MaxUploadBytes int64
	// SniffPrefixLen is how many leading bytes feed type detection.
	SniffPrefixLen int
	// AllowedTypes maps accepted detected media types to the storage
	// extension they are committed under.
	AllowedTypes map[string]string
}

// StoredFile describes a committed upload.
type StoredFile struct {
	Name      string    `json:"name"`
	MediaType string    `json:"mediaType"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
	Path      string    `json:"-"`
}

// Pipeline validates and persists untrusted upload streams. Requests
// run as independent single-pass pipelines; the only shared state is
// the filesystem namespace, and name uniqueness comes from the random
// token rather than locking.
type Pipeline struct {
	opts Options
}

// NewPipeline validates opts, ensures both directories exist, and
// returns a ready pipeline.
func NewPipeline(opts Options) (*Pipeline, error) {
	if opts.StorageDir == "" || opts.TempDir == "" {
		return nil, errors.New("ingest: storage and temp directories are required")
	}
	if opts.MaxUploadBytes <= 0 {
		return nil, errors.New("ingest: upload size ceiling must be positive")
	}
	if len(opts.AllowedTypes) == 0 {
		return nil, errors.New("ingest: allowed media type set is empty")
	}
	if opts.SniffPrefixLen <= 0 {
		opts.SniffPrefixLen = defaultSniffLen
	}
	if err := util.EnsureDir(opts.StorageDir); err != nil {
		return nil, fmt.Errorf("ingest: creating storage dir: %w", err)
	}
	if err := util.EnsureDir(opts.TempDir); err != nil {
		return nil, fmt.Errorf("ingest: creating temp dir: %w", err)
	}
	return &Pipeline{opts: opts}, nil
}

// Store runs one upload through the full pipeline:
// sanitize -> sniff -> limit+write -> commit. The body is consumed in a
// single pass and never buffered whole. Failures return a *Rejection
// and leave neither a temp nor a final file behind.
func (p *Pipeline) Store(ctx context.Context, filename, declaredType string, body io.Reader) (*StoredFile, error) {
	dlog.Infof("Upload started: filename=%s declaredType=%s",
		util.EscapeForLog(filename), util.EscapeForLog(declaredType))

	base, err := SanitizeBaseName(filename)
	if err != nil {
		return nil, p.rejected(err, filename)
	}

	mediaType, prefix, err := sniffType(body, p.opts.SniffPrefixLen)
	if err != nil {
		return nil, p.rejected(err, filename)
	}

	ext, ok := p.opts.AllowedTypes[mediaType]
	if !ok {
		return nil, p.rejected(reject(DisallowedType,
			fmt.Sprintf("detected media type %q is not allowed", mediaType)), filename)
	}

	name := newStorageToken() + "_" + base + ext
	finalPath := filepath.Join(p.opts.StorageDir, name)

	// The sniffed prefix is replayed ahead of the remaining body so the
	// limiter accounts for every byte exactly once. Cancellation shows
	// up as a read failure, same cleanup as any other fault.
	limited := newLimitReader(
		io.MultiReader(bytes.NewReader(prefix), &ctxReader{ctx: ctx, r: body}),
		p.opts.MaxUploadBytes,
	)

	size, err := writeAtomic(p.opts.TempDir, finalPath, limited)
	if err != nil {
		return nil, p.rejected(err, filename)
	}

	stored := &StoredFile{
		Name:      name,
		MediaType: mediaType,
		Size:      size,
		CreatedAt: time.Now().UTC(),
		Path:      finalPath,
	}
	dlog.Infof("Upload committed: name=%s type=%s size=%d", stored.Name, stored.MediaType, stored.Size)
	return stored, nil
}

// rejected normalizes err into a *Rejection and logs it with the
// client filename escaped.
func (p *Pipeline) rejected(err error, filename string) error {
	var rej *Rejection
	if !errors.As(err, &rej) {
		rej = rejectWrap(WriteFailure, "upload failed", err)
	}
	switch rej.Kind {
	case WriteFailure:
		// Full internal detail stays in the logs; the caller sees only
		// the generic message.
		dlog.Errorf("Upload failed (%s): filename=%s: %v", rej.Kind, util.EscapeForLog(filename), rej)
	default:
		dlog.Warnf("Upload rejected (%s): filename=%s", rej.Kind, util.EscapeForLog(filename))
	}
	return rej
}

// newStorageToken returns the random component of a storage name. The
// token space makes collisions negligible, so commits need no
// cross-request coordination.
func newStorageToken() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// ctxReader surfaces context cancellation as a read error so a dropped
// connection aborts the copy mid-stream.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
