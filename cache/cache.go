// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Cache stores raw provider responses on disk, one file per ticker and API
// function. An empty directory disables the cache.
type Cache struct {
	Dir string
}

func New(dir string) *Cache {
	return &Cache{Dir: dir}
}

// Enabled reports whether responses are read from and written to disk
func (cache *Cache) Enabled() bool {
	return cache != nil && cache.Dir != ""
}

// Path returns the file that holds the response for ticker and function
func (cache *Cache) Path(ticker, function string) string {
	fn := fmt.Sprintf("%s_%s.json", strings.ToUpper(strings.TrimSpace(ticker)), strings.ToUpper(function))
	return filepath.Join(cache.Dir, fn)
}

// Get returns the cached response. The bool is false on a cache miss.
func (cache *Cache) Get(ticker, function string) ([]byte, bool, error) {
	if !cache.Enabled() {
		return nil, false, nil
	}

	fn := cache.Path(ticker, function)
	content, err := os.ReadFile(fn)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache file %s: %w", fn, err)
	}

	log.Debug().Str("FileName", fn).Msg("cache hit")
	return content, true, nil
}

// Put saves a response. The file is written to a temporary name first so a
// partial write is never mistaken for a cached response.
func (cache *Cache) Put(ticker, function string, content []byte) error {
	if !cache.Enabled() {
		return nil
	}

	if err := os.MkdirAll(cache.Dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	fn := cache.Path(ticker, function)
	tmp, err := os.CreateTemp(cache.Dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create cache file: %w", err)
	}

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	if err := os.Rename(tmp.Name(), fn); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("save cache file %s: %w", fn, err)
	}

	log.Debug().Str("FileName", fn).Int("Size", len(content)).Msg("saved response to cache")
	return nil
}

// Remove deletes a cached response; removing a missing entry is not an error
func (cache *Cache) Remove(ticker, function string) error {
	if !cache.Enabled() {
		return nil
	}

	err := os.Remove(cache.Path(ticker, function))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
