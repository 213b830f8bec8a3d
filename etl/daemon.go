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
package etl

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// DefaultSchedule runs ingestion at 06:00 on the first day of each month
const DefaultSchedule = "0 6 1 * *"

// Daemon runs a job on a cron schedule. A run that is still in progress
// when the next one is due causes the next one to be skipped.
type Daemon struct {
	Schedule string
	cron     *cron.Cron
}

// NewDaemon validates schedule and registers job with it
func NewDaemon(ctx context.Context, schedule string, job func(context.Context)) (*Daemon, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}

	logger := cronLogger{}
	scheduler := cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))

	if _, err := scheduler.AddFunc(schedule, func() { job(ctx) }); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	return &Daemon{
		Schedule: schedule,
		cron:     scheduler,
	}, nil
}

// Start begins scheduling in the background
func (daemon *Daemon) Start() {
	daemon.cron.Start()

	for _, entry := range daemon.cron.Entries() {
		log.Info().Str("Schedule", daemon.Schedule).Time("NextRun", entry.Next).Msg("scheduled ingestion")
	}
}

// Stop ends scheduling and waits for a running job to finish
func (daemon *Daemon) Stop() {
	<-daemon.cron.Stop().Done()
}

// cronLogger sends cron's log messages to zerolog
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	log.Debug().Fields(keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
