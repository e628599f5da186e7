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
)

// maxBaseLen bounds the sanitized basename kept from the client
// filename. The random token guarantees uniqueness, the base is only a
// human-readable hint.
const maxBaseLen = 64

// SanitizeBaseName derives a safe basename fragment from the untrusted
// client filename. Directory components from either separator family
// are stripped, the client extension is discarded (the stored extension
// comes from the detected media type), and everything outside
// [A-Za-z0-9._-] is dropped. Fails with InvalidName when nothing usable
// remains.
func SanitizeBaseName(filename string) (string, error) {
	// Keep only the last path element, whichever separator the client
	// used.
	if i := strings.LastIndexAny(filename, `/\`); i >= 0 {
		filename = filename[i+1:]
	}

	// Drop the client extension; it is untrusted metadata.
	if i := strings.LastIndexByte(filename, '.'); i > 0 {
		filename = filename[:i]
	}

	var b strings.Builder
	for _, r := range filename {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		}
	}

	base := strings.Trim(b.String(), ".")
	if len(base) > maxBaseLen {
		base = base[:maxBaseLen]
	}
	if base == "" || strings.Trim(base, "._-") == "" {
		return "", reject(InvalidName, "filename contains no usable characters")
	}
	return base, nil
}
