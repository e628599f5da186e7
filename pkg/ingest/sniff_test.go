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

// pngSig is the PNG magic-byte signature.
var pngSig = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

func TestSniffType(t *testing.T) {
	testCases := []struct {
		name     string
		body     []byte
		want     string
		wantKind RejectKind
		wantErr  bool
	}{
		{
			name: "png signature",
			body: append(append([]byte{}, pngSig...), make([]byte, 64)...),
			want: "image/png",
		},
		{
			name: "gif signature",
			body: []byte("GIF89a-and-some-trailing-bytes"),
			want: "image/gif",
		},
		{
			name: "plain text parameters stripped",
			body: []byte("just some text"),
			want: "text/plain",
		},
		{
			name: "short body still detected",
			body: []byte("GIF89a"),
			want: "image/gif",
		},
		{
			name:     "empty body",
			body:     nil,
			wantErr:  true,
			wantKind: EmptyBody,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, prefix, err := sniffType(bytes.NewReader(tc.body), 512)
			if (err != nil) != tc.wantErr {
				t.Fatalf("sniffType() error = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.wantErr {
				if !IsKind(err, tc.wantKind) {
					t.Errorf("error kind = %v, want %v", err, tc.wantKind)
				}
				return
			}
			if got != tc.want {
				t.Errorf("sniffType() = %q, want %q", got, tc.want)
			}
			if len(prefix) > 512 {
				t.Errorf("prefix is %d bytes, want at most 512", len(prefix))
			}
		})
	}
}

func TestSniffType_ConsumesOnlyPrefix(t *testing.T) {
	body := append(append([]byte{}, pngSig...), make([]byte, 4096)...)
	src := &meteredReader{r: bytes.NewReader(body)}

	_, prefix, err := sniffType(src, 512)
	if err != nil {
		t.Fatalf("sniffType: %v", err)
	}
	if src.read != 512 {
		t.Errorf("sniffing consumed %d bytes, want exactly 512", src.read)
	}

	// The prefix plus the untouched remainder reassembles the stream.
	rest, _ := io.ReadAll(src)
	if len(prefix)+len(rest) != len(body) {
		t.Errorf("prefix+rest = %d bytes, want %d", len(prefix)+len(rest), len(body))
	}
}
