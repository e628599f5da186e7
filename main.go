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

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/droply-io/droply/pkg/config"
	"github.com/droply-io/droply/pkg/cors"
	"github.com/droply-io/droply/pkg/dlog"
	"github.com/droply-io/droply/pkg/ingest"
	"github.com/droply-io/droply/pkg/storage"
	"github.com/droply-io/droply/service/file"
)

func main() {
	if err := config.InitConfig(); err != nil {
		dlog.Fatalf("Failed to initialize configuration: %v", err)
	}

	cfg := config.Get()

	logLevel, err := dlog.ParseLevel(cfg.LogLevel)
	if err != nil {
		dlog.Warnf("Invalid initial log level '%s': %v. Using default.", cfg.LogLevel, err)
	}
	dlog.SetLevel(logLevel)
	dlog.Infof("Logger initialized with level: %s", cfg.LogLevel)

	pipeline, err := ingest.NewPipeline(ingest.Options{
		StorageDir:     cfg.StorageDir,
		TempDir:        cfg.TempDir,
		MaxUploadBytes: cfg.MaxUploadBytes,
		SniffPrefixLen: cfg.SniffPrefixLen,
		AllowedTypes:   cfg.AllowedTypes,
	})
	if err != nil {
		dlog.Fatalf("Failed to initialize ingest pipeline: %v", err)
	}

	retriever, err := ingest.NewRetriever(cfg.StorageDir)
	if err != nil {
		dlog.Fatalf("Failed to initialize retriever: %v", err)
	}

	var shares storage.Store
	if cfg.RedisAddr != "" {
		shares, err = storage.NewRedisStore(cfg.RedisAddr)
		if err != nil {
			dlog.Fatalf("Failed to connect to redis at %s: %v", cfg.RedisAddr, err)
		}
		dlog.Infof("Share links enabled via redis at %s", cfg.RedisAddr)
	} else {
		dlog.Info("No redis address configured, share links disabled")
	}

	fileSvcHdr := &file.Handler{
		Pipeline:  pipeline,
		Retriever: retriever,
		Shares:    shares,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", fileSvcHdr.Upload)
	mux.HandleFunc("GET /files/{name}", fileSvcHdr.Download)
	mux.HandleFunc("GET /d/{key}", fileSvcHdr.Share)
	mux.Handle("GET /metrics", promhttp.Handler())

	fileSrv := &http.Server{
		Addr:    cfg.Addr,
		Handler: cors.NewCORS().Handler(mux),
	}

	// Setup graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		dlog.Info("Shutting down server...")

		// Set timeout for HTTP server shutdown
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := fileSrv.Shutdown(ctx); err != nil {
			dlog.Errorf("Server shutdown error: %v", err)
		}

		dlog.Info("Server shutdown complete")
		os.Exit(0)
	}()

	dlog.Infof("Server starting on %v", cfg.Addr)

	if cfg.CertFile != "" && cfg.KeyFile != "" {
		if _, err := os.Stat(cfg.CertFile); err == nil {
			if _, err := os.Stat(cfg.KeyFile); err == nil {
				dlog.Infof("Starting HTTPS server with certificates: %s, %s", cfg.CertFile, cfg.KeyFile)
				if err := fileSrv.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile); err != nil && !errors.Is(err, http.ErrServerClosed) {
					dlog.Fatalf("Failed to start HTTPS server: %v", err)
				}
				return
			}
		}
		dlog.Warnf("Certificate files not found, falling back to HTTP mode")
	}

	dlog.Infof("Starting HTTP server")
	if err := fileSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		dlog.Fatalf("Failed to start HTTP server: %v", err)
	}
}
