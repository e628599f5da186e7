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
	"os"
	"path/filepath"
	"strings"

	"github.com/droply-io/droply/pkg/dlog"
	"github.com/droply-io/droply/pkg/util"
)

// Retriever resolves client-requested storage names to files guaranteed
// to live under the storage root.
type Retriever struct {
	root string // canonicalized storage root
}

// NewRetriever canonicalizes root (resolving symlinks) once so every
// lookup compares against a stable ancestor.
func NewRetriever(root string) (*Retriever, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	return &Retriever{root: canonical}, nil
}

// Open resolves name under the storage root and returns an open file
// handle plus its info. PathTraversal and NotFound are distinguished
// here (and in logs) but callers are expected to surface both
// identically to avoid name enumeration.
func (rt *Retriever) Open(name string) (*os.File, os.FileInfo, error) {
	if err := rt.checkName(name); err != nil {
		dlog.Warnf("Retrieval rejected (%s): name=%s", PathTraversal, util.EscapeForLog(name))
		return nil, nil, err
	}

	joined := filepath.Join(rt.root, name)

	// Canonicalize before opening so symlinks planted under the root
	// cannot point outside it.
	canonical, err := filepath.EvalSymlinks(joined)
	if err != nil {
		if os.IsNotExist(err) {
			dlog.Debugf("Retrieval miss: name=%s", util.EscapeForLog(name))
			return nil, nil, reject(NotFound, "file not found")
		}
		return nil, nil, rejectWrap(WriteFailure, "resolving file", err)
	}
	if !rt.contains(canonical) {
		dlog.Warnf("Retrieval rejected (%s): name=%s resolves outside the storage root",
			PathTraversal, util.EscapeForLog(name))
		return nil, nil, reject(PathTraversal, "requested name escapes the storage root")
	}

	f, err := os.Open(canonical)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, reject(NotFound, "file not found")
		}
		return nil, nil, rejectWrap(WriteFailure, "opening file", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, rejectWrap(WriteFailure, "stat file", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, reject(NotFound, "file not found")
	}
	return f, info, nil
}

// checkName rejects hostile names before any filesystem access.
// Committed storage names are single path segments (token_base.ext),
// so any separator is hostile: a multi-segment name could reach the
// in-flight temp directory or other non-committed paths under the
// root, in any encoding that survived URL decoding.
func (rt *Retriever) checkName(name string) error {
	if name == "" || strings.IndexByte(name, 0) != -1 {
		return reject(PathTraversal, "invalid storage name")
	}
	if strings.ContainsAny(name, `/\`) {
		return reject(PathTraversal, "invalid storage name")
	}
	if name == "." || name == ".." {
		return reject(PathTraversal, "invalid storage name")
	}
	if filepath.VolumeName(name) != "" {
		return reject(PathTraversal, "invalid storage name")
	}
	return nil
}

// contains reports whether path is a strict descendant of the root.
// The root directory itself is never a retrievable file.
func (rt *Retriever) contains(path string) bool {
	return strings.HasPrefix(path, rt.root+string(filepath.Separator))
}
