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
	"strings"
	"testing"
)

func TestSanitizeBaseName(t *testing.T) {
	testCases := []struct {
		name     string
		filename string
		want     string
		wantErr  bool
	}{
		{
			name:     "plain name",
			filename: "photo.png",
			want:     "photo",
		},
		{
			name:     "strips unix directories",
			filename: "../../etc/passwd.txt",
			want:     "passwd",
		},
		{
			name:     "strips windows directories",
			filename: `C:\Users\victim\report.pdf`,
			want:     "report",
		},
		{
			name:     "drops hostile characters",
			filename: "we ird$na!me*.jpeg",
			want:     "weirdname",
		},
		{
			name:     "keeps allowed punctuation",
			filename: "my-file_v2.1.png",
			want:     "my-file_v2.1",
		},
		{
			name:     "nul byte removed",
			filename: "a\x00b.png",
			want:     "ab",
		},
		{
			name:     "empty filename",
			filename: "",
			wantErr:  true,
		},
		{
			name:     "nothing usable remains",
			filename: "@#$%^&*.png",
			wantErr:  true,
		},
		{
			name:     "only separators and dots",
			filename: "../..",
			wantErr:  true,
		},
		{
			name:     "long name truncated",
			filename: strings.Repeat("a", 300) + ".png",
			want:     strings.Repeat("a", maxBaseLen),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SanitizeBaseName(tc.filename)
			if (err != nil) != tc.wantErr {
				t.Fatalf("SanitizeBaseName(%q) error = %v, wantErr %v", tc.filename, err, tc.wantErr)
			}
			if tc.wantErr {
				if !IsKind(err, InvalidName) {
					t.Errorf("SanitizeBaseName(%q) error kind = %v, want InvalidName", tc.filename, err)
				}
				return
			}
			if got != tc.want {
				t.Errorf("SanitizeBaseName(%q) = %q, want %q", tc.filename, got, tc.want)
			}
		})
	}
}
