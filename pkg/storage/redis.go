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

package storage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements the Store interface on Redis (or any
// RESP-compatible server such as Dragonfly).
type RedisStore struct {
	client redis.Cmdable
}

// NewRedisStore connects to addr and verifies the connection before
// returning a Store.
func NewRedisStore(addr string) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &RedisStore{client: client}, nil
}

// SaveShare implements the Store interface.
func (s *RedisStore) SaveShare(ctx context.Context, key string, rec *ShareRecord) error {
	if rec == nil {
		return errors.New("share record cannot be nil")
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, shareKeyspace(key), payload, ShareTTL).Err()
}

// GetShare implements the Store interface.
func (s *RedisStore) GetShare(ctx context.Context, key string) (*ShareRecord, error) {
	val, err := s.client.Get(ctx, shareKeyspace(key)).Result()
	if err != nil {
		return nil, err
	}

	var rec ShareRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func shareKeyspace(key string) string {
	return "share:" + key
}
