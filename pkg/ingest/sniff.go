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
	"net/http"
	"strings"
)

// defaultSniffLen matches the http.DetectContentType signature window.
const defaultSniffLen = 512

// sniffType reads at most prefixLen bytes from r and detects the media
// type from byte signatures alone. The consumed prefix is returned so
// the caller can reassemble the stream; the body is never read twice.
// A zero-length body fails with EmptyBody.
func sniffType(r io.Reader, prefixLen int) (mediaType string, prefix []byte, err error) {
	if prefixLen <= 0 {
		prefixLen = defaultSniffLen
	}

	prefix = make([]byte, prefixLen)
	n, err := io.ReadFull(r, prefix)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", nil, rejectWrap(WriteFailure, "reading body prefix", err)
	}
	prefix = prefix[:n]

	if n == 0 {
		return "", nil, reject(EmptyBody, "request body is empty")
	}

	mediaType = http.DetectContentType(prefix)
	// Strip parameters such as "; charset=utf-8".
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}
	return mediaType, prefix, nil
}
