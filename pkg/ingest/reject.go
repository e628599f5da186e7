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
	"fmt"
)

// RejectKind tags why an upload or retrieval was refused. Every kind is
// recoverable at the pipeline boundary; none crash the process.
type RejectKind int

const (
	// InvalidName means nothing usable remained after sanitizing the
	// client filename.
	InvalidName RejectKind = iota
	// EmptyBody means the request body contained zero bytes.
	EmptyBody
	// DisallowedType means the detected media type is not in the
	// configured allow-set.
	DisallowedType
	// SizeExceeded means the cumulative body size crossed the ceiling.
	SizeExceeded
	// WriteFailure wraps an I/O fault, including client disconnects
	// mid-stream.
	WriteFailure
	// PathTraversal means a retrieval name resolved outside the
	// storage root.
	PathTraversal
	// NotFound means the resolved file does not exist.
	NotFound
)

var kindNames = map[RejectKind]string{
	InvalidName:    "invalid_name",
	EmptyBody:      "empty_body",
	DisallowedType: "disallowed_type",
	SizeExceeded:   "size_exceeded",
	WriteFailure:   "write_failure",
	PathTraversal:  "path_traversal",
	NotFound:       "not_found",
}

func (k RejectKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("reject_kind(%d)", int(k))
}

// Rejection is the structured outcome returned for every refused
// request. The message never contains raw attacker-controlled path
// fragments; callers log those through util.EscapeForLog.
type Rejection struct {
	Kind RejectKind
	msg  string
	err  error
}

func reject(kind RejectKind, msg string) *Rejection {
	return &Rejection{Kind: kind, msg: msg}
}

func rejectWrap(kind RejectKind, msg string, err error) *Rejection {
	return &Rejection{Kind: kind, msg: msg, err: err}
}

func (r *Rejection) Error() string {
	if r.err != nil {
		return fmt.Sprintf("%s: %s: %v", r.Kind, r.msg, r.err)
	}
	return fmt.Sprintf("%s: %s", r.Kind, r.msg)
}

func (r *Rejection) Unwrap() error {
	return r.err
}

// Message returns the caller-safe description of the rejection.
func (r *Rejection) Message() string {
	return r.msg
}

// KindOf extracts the rejection kind from err. Non-rejection errors
// report as WriteFailure with ok=false so callers can treat them as
// generic faults.
func KindOf(err error) (RejectKind, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Kind, true
	}
	return WriteFailure, false
}

// IsKind reports whether err is a Rejection of the given kind.
func IsKind(err error, kind RejectKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
