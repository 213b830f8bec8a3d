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
	"os"
	"strings"

	"github.com/penny-vault/pvratio/etl"
	"github.com/penny-vault/pvratio/provider"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pvratio",
	Short: "pvratio tracks financial ratios computed from company filings",
	Long: `pvratio is a command line utility for collecting the income statements,
balance sheets and cash flow statements of a small set of public companies and
turning them into a time series of financial ratios.

Statements are downloaded from Alpha Vantage, cached on disk, and stored in a
PostgreSQL database. From the stored statements pvratio computes:

	* gross, operating and net margin
	* current ratio
	* asset turnover

The ratios can be viewed in the terminal, served as a web dashboard, or
exported to CSV and Parquet files.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := zerolog.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		zerolog.SetGlobalLevel(level)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pvratio.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")

	rootCmd.PersistentFlags().String("db-url", "", "database connection string")
	if err := viper.BindPFlag("db.url", rootCmd.PersistentFlags().Lookup("db-url")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for db-url failed")
	}

	rootCmd.PersistentFlags().String("cache-dir", "", "directory where raw API responses are cached")
	if err := viper.BindPFlag("cache.dir", rootCmd.PersistentFlags().Lookup("cache-dir")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for cache-dir failed")
	}

	setDefaults()
}

func setDefaults() {
	viper.SetDefault("alphavantage.rateLimit", provider.DefaultRateLimit)
	viper.SetDefault("alphavantage.reports", provider.AnnualReports)
	viper.SetDefault("alphavantage.overview", true)
	viper.SetDefault("cache.dir", "data/raw")
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("schedule", etl.DefaultSchedule)
	viper.SetDefault("companies", defaultCompanies)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".pvratio" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("toml")
		viper.SetConfigName(".pvratio")
	}

	// PVRATIO_DB_URL, PVRATIO_ALPHAVANTAGE_APIKEY, ...
	viper.SetEnvPrefix("pvratio")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Info().Str("ConfigFN", viper.ConfigFileUsed()).Msg("Using config file")
	}
}
