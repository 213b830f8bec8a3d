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
package healthcheck

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/viper"
)

var (
	ErrStatus    = errors.New("status code is invalid")
	ErrNoCheckID = errors.New("no healthcheck configured")
)

// endpoints; variables so they can point at a test server
var (
	APIURL  = "https://healthchecks.io/api/v3"
	PingURL = "https://hc-ping.com"
)

type createReq struct {
	APIKey      string `json:"api_key"`
	Name        string `json:"name"`
	Description string `json:"desc,omitempty"`
	Grace       int    `json:"grace"`
	Schedule    string `json:"schedule"`
	Slug        string `json:"slug"`
	Tags        string `json:"tags"`
	Timezone    string `json:"tz"`
}

type createResp struct {
	PingURL string `json:"ping_url"`
}

// Create a new healthchecks.io check that expects a ping on schedule and
// return its id
func Create(name string, slug string, tags []string, schedule string) (string, error) {
	command := createReq{
		APIKey:      viper.GetString("healthchecks.apikey"),
		Name:        name,
		Description: "financial statement ingestion",
		Slug:        slug,
		Tags:        strings.Join(tags, " "),
		Grace:       3600,
		Schedule:    schedule,
		Timezone:    "America/New_York",
	}

	result := createResp{}

	client := resty.New()
	resp, err := client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(command).
		SetResult(&result).
		Post(APIURL + "/checks/")

	if err != nil {
		return "", err
	}

	if resp.StatusCode() > 201 {
		return "", fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	checkID := strings.Split(result.PingURL, "/")
	healthCheckID := checkID[len(checkID)-1]

	return healthCheckID, nil
}

// Start signals that a run has begun
func Start(checkID, runID string) error {
	return ping(checkID, "/start", runID, "")
}

// Success signals that a run finished; body is attached to the ping
func Success(checkID, runID, body string) error {
	return ping(checkID, "", runID, body)
}

// Fail signals that a run failed; body is attached to the ping
func Fail(checkID, runID, body string) error {
	return ping(checkID, "/fail", runID, body)
}

func ping(checkID, suffix, runID, body string) error {
	if checkID == "" {
		return ErrNoCheckID
	}

	req := resty.New().R()
	if runID != "" {
		req.SetQueryParam("rid", runID)
	}
	if body != "" {
		req.SetBody(body)
	}

	resp, err := req.Post(fmt.Sprintf("%s/%s%s", PingURL, checkID, suffix))
	if err != nil {
		return err
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	return nil
}
