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
package backblaze

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kothar/go-backblaze"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var (
	ErrBucketNotFound = errors.New("bucket not found")
	ErrNotConfigured  = errors.New("backblaze credentials are not configured")
)

type Config struct {
	ApplicationID  string
	ApplicationKey string
	Bucket         string
}

// ConfigFromViper reads the backblaze.* settings
func ConfigFromViper() Config {
	return Config{
		ApplicationID:  viper.GetString("backblaze.application_id"),
		ApplicationKey: viper.GetString("backblaze.application_key"),
		Bucket:         viper.GetString("backblaze.bucket"),
	}
}

func (config Config) Enabled() bool {
	return config.ApplicationID != "" && config.ApplicationKey != "" && config.Bucket != ""
}

// Upload copies fn into dirname of the configured bucket
func Upload(config Config, fn, dirname string) error {
	if !config.Enabled() {
		return ErrNotConfigured
	}

	reader, err := os.Open(fn)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("open export file failed")
		return err
	}
	defer reader.Close()

	b2, err := backblaze.NewB2(backblaze.Credentials{
		KeyID:          config.ApplicationID,
		ApplicationKey: config.ApplicationKey,
	})
	if err != nil {
		log.Error().Err(err).Str("BucketName", config.Bucket).Msg("authorize backblaze failed")
		return err
	}

	bucket, err := b2.Bucket(config.Bucket)
	if err != nil {
		log.Error().Err(err).Str("BucketName", config.Bucket).Msg("lookup bucket failed")
		return err
	}
	if bucket == nil {
		log.Error().Str("BucketName", config.Bucket).Msg("bucket does not exist")
		return fmt.Errorf("%w: %s", ErrBucketNotFound, config.Bucket)
	}

	outName := fmt.Sprintf("%s/%s", dirname, filepath.Base(fn))
	metadata := map[string]string{"source": "pvratio"}

	file, err := bucket.UploadFile(outName, metadata, reader)
	if err != nil {
		log.Error().Err(err).Str("FileName", outName).Str("BucketName", config.Bucket).Msg("save file to backblaze failed")
		return err
	}

	log.Info().Str("FileName", file.Name).Int64("Size", file.ContentLength).Str("ID", file.ID).Msg("uploaded file to backblaze")
	return nil
}
