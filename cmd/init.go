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
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/gosimple/slug"
	"github.com/jackc/pgx/v5"
	"github.com/pelletier/go-toml/v2"
	"github.com/penny-vault/pvratio/db"
	"github.com/penny-vault/pvratio/healthcheck"
	"github.com/penny-vault/pvratio/provider"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Gather configuration and setup the database schema",
	Run: func(cmd *cobra.Command, args []string) {
		conf := configFile{
			DB: dbConfig{URL: viper.GetString("db.url")},
			AlphaVantage: alphaVantageConfig{
				APIKey:    viper.GetString("alphavantage.apikey"),
				RateLimit: viper.GetInt("alphavantage.rateLimit"),
				Reports:   viper.GetString("alphavantage.reports"),
				Overview:  viper.GetBool("alphavantage.overview"),
			},
			Cache:    cacheConfig{Dir: viper.GetString("cache.dir")},
			Server:   serverConfig{Addr: viper.GetString("server.addr")},
			Schedule: viper.GetString("schedule"),
			Healthchecks: healthchecksConfig{
				APIKey:  viper.GetString("healthchecks.apikey"),
				CheckID: viper.GetString("healthchecks.checkId"),
			},
		}

		companies, err := configuredCompanies()
		if err != nil {
			log.Fatal().Err(err).Msg("could not read configured companies")
		}

		tickerList := strings.Join(tickersOf(companies), ", ")

		form := huh.NewForm(
			// Get details about the database
			huh.NewGroup(
				huh.NewInput().
					Title("Provide the DSN for connecting to your PostgreSQL database (postgres://[user[:password]@][netloc][:port][/dbname][?param1=value1&...])").
					Value(&conf.DB.URL).
					Validate(func(dsn string) error {
						_, err := pgx.ParseConfig(dsn)
						return err
					}),
			),

			// Data provider settings
			huh.NewGroup(
				huh.NewInput().
					Title("Enter your Alpha Vantage API key:").
					Value(&conf.AlphaVantage.APIKey).
					Validate(func(key string) error {
						if strings.TrimSpace(key) == "" {
							return fmt.Errorf("%w: alphavantage.apikey", ErrMissingConfig)
						}
						return nil
					}),

				huh.NewSelect[string]().
					Title("Which reports should be imported?").
					Options(
						huh.NewOption("Annual", provider.AnnualReports),
						huh.NewOption("Quarterly", provider.QuarterlyReports),
					).
					Value(&conf.AlphaVantage.Reports),

				huh.NewInput().
					Title("Which companies should be tracked? (comma separated tickers)").
					Value(&tickerList),
			),

			// Monitoring
			huh.NewGroup(
				huh.NewInput().
					Title("healthchecks.io API key (leave blank to disable monitoring):").
					Value(&conf.Healthchecks.APIKey),
			),
		)

		if err := form.Run(); err != nil {
			log.Fatal().Err(err).Msg("error gathering settings")
		}

		conf.Companies = selectCompanies(companies, tickersOf(parseTickers(tickerList)))
		if len(conf.Companies) == 0 {
			log.Fatal().Msg("at least one company must be tracked")
		}

		log.Info().Msg("creating database tables")

		if err := db.Migrate(conf.DB.URL); err != nil {
			log.Fatal().Err(err).Msg("error running database migration")
		}

		log.Info().Msg("database tables created")

		if conf.Healthchecks.APIKey != "" && conf.Healthchecks.CheckID == "" {
			viper.Set("healthchecks.apikey", conf.Healthchecks.APIKey)
			hostname, _ := os.Hostname()
			name := fmt.Sprintf("pvratio ingestion (%s)", hostname)
			checkID, err := healthcheck.Create(name, slug.Make(name), []string{"pvratio", "etl"}, conf.Schedule)
			if err != nil {
				log.Error().Err(err).Msg("could not create healthcheck; monitoring disabled")
			} else {
				conf.Healthchecks.CheckID = checkID
			}
		}

		configFN := cfgFile
		if configFN == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				log.Fatal().Err(err).Msg("could not determine user home directory")
			}
			configFN = filepath.Join(home, ".pvratio.toml")
		}

		log.Info().Str("ConfigFile", configFN).Msg("saving configuration")
		configData, err := toml.Marshal(conf)
		if err != nil {
			log.Fatal().Err(err).Msg("could not marshal configuration data")
		}

		if err := os.WriteFile(configFN, configData, 0600); err != nil {
			log.Fatal().Err(err).Str("FileName", configFN).Msg("could not save configuration to file")
		}

		fmt.Println(initSummary(conf, configFN))
	},
}

// initSummary describes the saved configuration in a bordered box
func initSummary(conf configFile, configFN string) string {
	names := make([]string, 0, len(conf.Companies))
	for _, company := range conf.Companies {
		names = append(names, company.DisplayName())
	}

	monitoring := "disabled"
	if conf.Healthchecks.CheckID != "" {
		monitoring = conf.Healthchecks.CheckID
	}

	style := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Padding(0, 1)

	return style.Render(strings.Join([]string{
		lipgloss.NewStyle().Bold(true).Render("pvratio is ready"),
		"",
		"Config:     " + configFN,
		"Reports:    " + conf.AlphaVantage.Reports,
		"Companies:  " + strings.Join(names, ", "),
		"Schedule:   " + conf.Schedule,
		"Monitoring: " + monitoring,
		"",
		"Next run `pvratio run` to download statements.",
	}, "\n"))
}

func init() {
	rootCmd.AddCommand(initCmd)
}
