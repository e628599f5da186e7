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
	"errors"
	"io"
	"os"

	"github.com/droply-io/droply/pkg/dlog"
)

// writeAtomic streams r into a temp file under tempDir, syncs it, and
// commits it to finalPath with a single rename. tempDir must live on
// the same volume as finalPath so the commit is a metadata-only
// operation. Every failure path removes the temp artifact before
// returning; a cleanup failure is logged and never masks the original
// error. Rejections from upstream readers (limiter, client stream)
// propagate unchanged; genuine I/O faults wrap into WriteFailure.
func writeAtomic(tempDir, finalPath string, r io.Reader) (written int64, err error) {
	tmp, err := os.CreateTemp(tempDir, ".droply-*")
	if err != nil {
		return 0, rejectWrap(WriteFailure, "creating temp file", err)
	}
	tmpPath := tmp.Name()

	committed := false
	defer func() {
		if committed {
			return
		}
		if rmErr := os.Remove(tmpPath); rmErr != nil && !os.IsNotExist(rmErr) {
			dlog.Warnf("Failed to clean up temp file %s: %v", tmpPath, rmErr)
		}
	}()

	written, err = io.Copy(tmp, r)
	if err != nil {
		if closeErr := tmp.Close(); closeErr != nil {
			dlog.Warnf("Failed to close temp file %s: %v", tmpPath, closeErr)
		}
		var rej *Rejection
		if errors.As(err, &rej) {
			return written, rej
		}
		return written, rejectWrap(WriteFailure, "streaming body to temp file", err)
	}

	// Flush to disk before the rename so a crash never promotes a
	// partially durable file.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return written, rejectWrap(WriteFailure, "syncing temp file", err)
	}
	if err := tmp.Close(); err != nil {
		return written, rejectWrap(WriteFailure, "closing temp file", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		return written, rejectWrap(WriteFailure, "committing file", err)
	}
	committed = true
	return written, nil
}
