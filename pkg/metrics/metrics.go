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

// Package metrics exposes the service's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UploadsTotal counts committed uploads.
	UploadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "droply",
		Name:      "uploads_total",
		Help:      "Number of uploads committed to storage.",
	})

	// UploadBytesTotal counts bytes committed to storage.
	UploadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "droply",
		Name:      "upload_bytes_total",
		Help:      "Total bytes committed to storage.",
	})

	// RejectionsTotal counts refused requests by rejection kind.
	RejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "droply",
		Name:      "rejections_total",
		Help:      "Number of rejected upload or retrieval requests.",
	}, []string{"reason"})

	// DownloadsTotal counts successfully served files.
	DownloadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "droply",
		Name:      "downloads_total",
		Help:      "Number of files served from storage.",
	})
)
