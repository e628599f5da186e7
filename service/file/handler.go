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

// Package file is the thin HTTP glue around the ingest pipeline: it
// decodes multipart requests into (filename, declared type, chunk
// stream) and maps pipeline outcomes to status codes. All validation
// lives in pkg/ingest.
package file

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/droply-io/droply/pkg/dlog"
	"github.com/droply-io/droply/pkg/ingest"
	"github.com/droply-io/droply/pkg/metrics"
	"github.com/droply-io/droply/pkg/storage"
	"github.com/droply-io/droply/pkg/util"
)

// shareKeyLen is the length of generated share keys.
const shareKeyLen = 8

// Handler serves the upload and retrieval endpoints.
type Handler struct {
	Pipeline  *ingest.Pipeline
	Retriever *ingest.Retriever
	// Shares is optional; when nil, share links are disabled.
	Shares storage.Store
}

// uploadResponse is the success payload for POST /upload.
type uploadResponse struct {
	Name      string `json:"name"`
	MediaType string `json:"mediaType"`
	Size      int64  `json:"size"`
	ShareKey  string `json:"shareKey,omitempty"`
}

// Upload handles POST /upload. The multipart body is streamed part by
// part; the first "file" part feeds the pipeline without ever being
// buffered whole.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	mr, err := r.MultipartReader()
	if err != nil {
		http.Error(w, "expected multipart request", http.StatusBadRequest)
		return
	}

	part, err := nextFilePart(mr)
	if err != nil {
		http.Error(w, "no file provided", http.StatusBadRequest)
		return
	}
	defer part.Close()

	stored, err := h.Pipeline.Store(r.Context(), part.FileName(), part.Header.Get("Content-Type"), part)
	if err != nil {
		h.writeRejection(w, err)
		return
	}

	metrics.UploadsTotal.Inc()
	metrics.UploadBytesTotal.Add(float64(stored.Size))

	resp := uploadResponse{
		Name:      stored.Name,
		MediaType: stored.MediaType,
		Size:      stored.Size,
	}
	if h.Shares != nil {
		key := util.RandomKey(shareKeyLen)
		rec := &storage.ShareRecord{
			Name:      stored.Name,
			MediaType: stored.MediaType,
			Size:      stored.Size,
			CreatedAt: stored.CreatedAt,
		}
		if err := h.Shares.SaveShare(r.Context(), key, rec); err != nil {
			// The upload is committed; a missing share link is not
			// worth failing the request over.
			dlog.Warnf("Failed to save share key for %s: %v", stored.Name, err)
		} else {
			resp.ShareKey = key
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		dlog.Errorf("Failed to encode upload response: %v", err)
	}
}

// Download handles GET /files/{name}.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	h.serveStored(w, r, r.PathValue("name"))
}

// Share handles GET /d/{key}: resolves a share key to its storage name
// and streams the file. Unknown and expired keys are identical 404s.
func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if h.Shares == nil || key == "" {
		http.NotFound(w, r)
		return
	}

	rec, err := h.Shares.GetShare(r.Context(), key)
	if err != nil {
		dlog.Debugf("Share key miss: key=%s: %v", util.EscapeForLog(key), err)
		http.NotFound(w, r)
		return
	}
	h.serveStored(w, r, rec.Name)
}

// serveStored streams a stored file through the safe retriever.
// http.ServeContent copies in bounded chunks and handles range
// requests; the whole file is never loaded.
func (h *Handler) serveStored(w http.ResponseWriter, r *http.Request, name string) {
	f, info, err := h.Retriever.Open(name)
	if err != nil {
		h.writeRejection(w, err)
		return
	}
	defer f.Close()

	metrics.DownloadsTotal.Inc()
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// writeRejection maps a pipeline error onto a status code. WriteFailure
// detail never reaches the client, and PathTraversal is presented
// exactly like NotFound.
func (h *Handler) writeRejection(w http.ResponseWriter, err error) {
	kind, ok := ingest.KindOf(err)
	metrics.RejectionsTotal.WithLabelValues(kind.String()).Inc()
	if !ok {
		dlog.Errorf("Unexpected pipeline error: %v", err)
		http.Error(w, "upload failed", http.StatusInternalServerError)
		return
	}

	switch kind {
	case ingest.SizeExceeded:
		http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
	case ingest.DisallowedType:
		http.Error(w, "unsupported file content", http.StatusUnsupportedMediaType)
	case ingest.EmptyBody, ingest.InvalidName:
		http.Error(w, "invalid upload", http.StatusBadRequest)
	case ingest.PathTraversal, ingest.NotFound:
		http.Error(w, "file not found", http.StatusNotFound)
	default:
		http.Error(w, "upload failed", http.StatusInternalServerError)
	}
}

// nextFilePart advances the multipart stream to the first part named
// "file".
func nextFilePart(mr *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := mr.NextPart()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, errors.New("multipart body has no file part")
			}
			return nil, err
		}
		if part.FormName() == "file" {
			return part, nil
		}
		// Drain and discard unrelated form fields.
		if _, err := io.Copy(io.Discard, part); err != nil {
			part.Close()
			return nil, err
		}
		part.Close()
	}
}
