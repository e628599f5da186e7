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
	"io"
	"testing"
)

// meteredReader tracks how many bytes a consumer actually pulled from
// the source.
type meteredReader struct {
	r    io.Reader
	read int64
}

func (m *meteredReader) Read(p []byte) (int, error) {
	n, err := m.r.Read(p)
	m.read += int64(n)
	return n, err
}

func TestLimitReader_PassThroughBelowCeiling(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 1024)
	lr := newLimitReader(bytes.NewReader(payload), 2048)

	got, err := io.ReadAll(lr)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("limiter altered the stream below the ceiling")
	}
	if lr.Count() != int64(len(payload)) {
		t.Errorf("Count() = %d, want %d", lr.Count(), len(payload))
	}
}

func TestLimitReader_FailsMidStream(t *testing.T) {
	// 1 MiB ceiling against a 4 MiB body: the limiter must trip long
	// before the source is drained.
	const ceiling = 1 << 20
	src := &meteredReader{r: bytes.NewReader(make([]byte, 4<<20))}

	lr := newLimitReader(src, ceiling)
	_, err := io.Copy(io.Discard, lr)

	if !IsKind(err, SizeExceeded) {
		t.Fatalf("expected SizeExceeded, got %v", err)
	}
	if src.read >= 4<<20 {
		t.Errorf("limiter consumed the full body (%d bytes) before failing", src.read)
	}
}

func TestLimitReader_RejectsCrossingChunkWhole(t *testing.T) {
	lr := newLimitReader(bytes.NewReader([]byte("abcdefgh")), 4)

	buf := make([]byte, 8)
	n, err := lr.Read(buf)
	if n != 0 {
		t.Errorf("crossing chunk returned %d bytes, want 0", n)
	}
	if !IsKind(err, SizeExceeded) {
		t.Fatalf("expected SizeExceeded, got %v", err)
	}
}

func TestLimitReader_ExactCeilingAllowed(t *testing.T) {
	payload := []byte("12345678")
	lr := newLimitReader(bytes.NewReader(payload), int64(len(payload)))

	got, err := io.ReadAll(lr)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != len(payload) {
		t.Errorf("read %d bytes, want %d", len(got), len(payload))
	}
}
