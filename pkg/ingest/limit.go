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
	"fmt"
	"io"
)

// limitReader is a transparent pass-through that counts bytes and fails
// with SizeExceeded on the read that crosses the ceiling. The crossing
// chunk is rejected whole; no truncated prefix is ever handed
// downstream, so the writer never commits bytes past the point of
// detection.
type limitReader struct {
	r     io.Reader
	max   int64
	total int64
}

func newLimitReader(r io.Reader, max int64) *limitReader {
	return &limitReader{r: r, max: max}
}

func (l *limitReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	if n > 0 {
		l.total += int64(n)
		if l.total > l.max {
			return 0, reject(SizeExceeded,
				fmt.Sprintf("body exceeds %d byte ceiling", l.max))
		}
	}
	return n, err
}

// Count returns the bytes passed through so far.
func (l *limitReader) Count() int64 {
	return l.total
}
