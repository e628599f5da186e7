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
	"io"
	"os"
	"strings"
	"testing"
)

func newTestPipeline(t *testing.T, maxBytes int64) (*Pipeline, string, string) {
	t.Helper()
	storageDir := t.TempDir()
	tempDir := t.TempDir()

	p, err := NewPipeline(Options{
		StorageDir:     storageDir,
		TempDir:        tempDir,
		MaxUploadBytes: maxBytes,
		SniffPrefixLen: 512,
		AllowedTypes: map[string]string{
			"image/png":       ".png",
			"image/gif":       ".gif",
			"application/pdf": ".pdf",
		},
	})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	return p, storageDir, tempDir
}

// pngPayload returns n bytes starting with the PNG signature.
func pngPayload(n int) []byte {
	b := make([]byte, n)
	copy(b, pngSig)
	return b
}

func TestPipeline_DetectedTypeOverridesDeclared(t *testing.T) {
	p, storageDir, tempDir := newTestPipeline(t, 10<<20)

	// PNG bytes behind a misleading name and declared type.
	body := pngPayload(2048)
	stored, err := p.Store(context.Background(), "photo.txt", "text/plain", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	if stored.MediaType != "image/png" {
		t.Errorf("MediaType = %q, want image/png", stored.MediaType)
	}
	if !strings.HasSuffix(stored.Name, "_photo.png") {
		t.Errorf("Name = %q, want token + _photo.png", stored.Name)
	}
	if stored.Size != int64(len(body)) {
		t.Errorf("Size = %d, want %d", stored.Size, len(body))
	}

	got, err := os.ReadFile(stored.Path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Error("stored content differs from upload")
	}
	if names := dirEntries(t, tempDir); len(names) != 0 {
		t.Errorf("temp dir not empty after commit: %v", names)
	}
	if names := dirEntries(t, storageDir); len(names) != 1 {
		t.Errorf("storage dir has %v, want exactly the stored file", names)
	}
}

func TestPipeline_SizeExceededMidStream(t *testing.T) {
	const ceiling = 10 << 20
	p, storageDir, tempDir := newTestPipeline(t, ceiling)

	// A 15 MiB PNG against a 10 MiB ceiling. The pipeline must fail
	// without draining the source.
	src := &meteredReader{r: bytes.NewReader(pngPayload(15 << 20))}
	_, err := p.Store(context.Background(), "big.png", "image/png", src)
	if !IsKind(err, SizeExceeded) {
		t.Fatalf("expected SizeExceeded, got %v", err)
	}
	if src.read >= 15<<20 {
		t.Errorf("pipeline consumed the full 15 MiB body before rejecting")
	}

	if names := dirEntries(t, storageDir); len(names) != 0 {
		t.Errorf("storage root changed by rejected upload: %v", names)
	}
	if names := dirEntries(t, tempDir); len(names) != 0 {
		t.Errorf("temp artifact left behind: %v", names)
	}
}

func TestPipeline_DisallowedTypeStopsEarly(t *testing.T) {
	p, storageDir, _ := newTestPipeline(t, 10<<20)

	// Plain text declaring itself PNG: the declared header must not
	// rescue it, and nothing past the sniff prefix may be consumed.
	body := []byte(strings.Repeat("this is text. ", 1024))
	src := &meteredReader{r: bytes.NewReader(body)}

	_, err := p.Store(context.Background(), "fake.png", "image/png", src)
	if !IsKind(err, DisallowedType) {
		t.Fatalf("expected DisallowedType, got %v", err)
	}
	if src.read > 512 {
		t.Errorf("consumed %d bytes after type rejection, want at most the sniff prefix", src.read)
	}
	if names := dirEntries(t, storageDir); len(names) != 0 {
		t.Errorf("storage root changed by rejected upload: %v", names)
	}
}

func TestPipeline_EmptyBody(t *testing.T) {
	p, _, _ := newTestPipeline(t, 10<<20)

	_, err := p.Store(context.Background(), "empty.png", "image/png", bytes.NewReader(nil))
	if !IsKind(err, EmptyBody) {
		t.Fatalf("expected EmptyBody, got %v", err)
	}
}

func TestPipeline_InvalidNameBeforeAnyIO(t *testing.T) {
	p, _, _ := newTestPipeline(t, 10<<20)

	src := &meteredReader{r: bytes.NewReader(pngPayload(1024))}
	_, err := p.Store(context.Background(), "@#$%^&*", "image/png", src)
	if !IsKind(err, InvalidName) {
		t.Fatalf("expected InvalidName, got %v", err)
	}
	if src.read != 0 {
		t.Errorf("sanitize rejection consumed %d bytes, want 0", src.read)
	}
}

func TestPipeline_InterruptedUploadLeavesNothing(t *testing.T) {
	p, storageDir, tempDir := newTestPipeline(t, 10<<20)

	body := &brokenReader{prefix: pngPayload(512)}
	_, err := p.Store(context.Background(), "cut.png", "image/png", body)
	if !IsKind(err, WriteFailure) {
		t.Fatalf("expected WriteFailure, got %v", err)
	}

	if names := dirEntries(t, storageDir); len(names) != 0 {
		t.Errorf("final file visible after interrupted upload: %v", names)
	}
	if names := dirEntries(t, tempDir); len(names) != 0 {
		t.Errorf("temp artifact left behind: %v", names)
	}
}

func TestPipeline_CancellationCleansUp(t *testing.T) {
	p, storageDir, tempDir := newTestPipeline(t, 10<<20)

	ctx, cancel := context.WithCancel(context.Background())
	body := io.MultiReader(
		bytes.NewReader(pngPayload(600)),
		readerFunc(func(q []byte) (int, error) {
			cancel()
			q[0] = 'x'
			return 1, nil
		}),
		bytes.NewReader(make([]byte, 4096)),
	)

	_, err := p.Store(ctx, "dropped.png", "image/png", body)
	if !IsKind(err, WriteFailure) {
		t.Fatalf("expected WriteFailure on cancellation, got %v", err)
	}

	if names := dirEntries(t, storageDir); len(names) != 0 {
		t.Errorf("final file visible after cancelled upload: %v", names)
	}
	if names := dirEntries(t, tempDir); len(names) != 0 {
		t.Errorf("temp artifact left behind: %v", names)
	}
}

func TestPipeline_NamesNeverCollide(t *testing.T) {
	p, storageDir, _ := newTestPipeline(t, 10<<20)

	seen := make(map[string]bool)
	for i := 0; i < 32; i++ {
		stored, err := p.Store(context.Background(), "same.png", "image/png", bytes.NewReader(pngPayload(64)))
		if err != nil {
			t.Fatalf("Store #%d: %v", i, err)
		}
		if seen[stored.Name] {
			t.Fatalf("storage name %q generated twice", stored.Name)
		}
		seen[stored.Name] = true
	}
	if names := dirEntries(t, storageDir); len(names) != 32 {
		t.Errorf("storage dir has %d files, want 32", len(names))
	}
}

func TestPipeline_SniffBytesCountTowardCeiling(t *testing.T) {
	// Ceiling below the sniff window: the prefix itself must trip the
	// limiter.
	p, storageDir, _ := newTestPipeline(t, 256)

	_, err := p.Store(context.Background(), "tiny.png", "image/png", bytes.NewReader(pngPayload(512)))
	if !IsKind(err, SizeExceeded) {
		t.Fatalf("expected SizeExceeded, got %v", err)
	}
	if names := dirEntries(t, storageDir); len(names) != 0 {
		t.Errorf("storage root changed: %v", names)
	}
}
