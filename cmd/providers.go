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
	"sort"
	"strings"

	"github.com/penny-vault/pvratio/provider"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// providersCmd represents the providers command
var providersCmd = &cobra.Command{
	Use:   "providers [name]",
	Short: "List the data providers or get details about a specific provider",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) > 0 {
			dataProvider, ok := provider.Map[args[0]]
			if !ok {
				log.Fatal().Str("Provider", args[0]).Msg("unknown provider")
			}
			fmt.Print(renderMarkdown(providerDoc(dataProvider)))
			return
		}

		names := make([]string, 0, len(provider.Map))
		for name := range provider.Map {
			names = append(names, name)
		}
		sort.Strings(names)

		builder := strings.Builder{}
		builder.WriteString("# Available Providers\n")
		for _, name := range names {
			builder.WriteString(fmt.Sprintf("\n## %s\n", name))
			builder.WriteString(provider.Map[name].Description())
			builder.WriteString("\n")
		}

		fmt.Print(renderMarkdown(builder.String()))
	},
}

// providerDoc describes a provider's datasets and settings in markdown
func providerDoc(dataProvider provider.Provider) string {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("# %s\n", dataProvider.Name()))
	builder.WriteString(dataProvider.Description())

	datasets := dataProvider.Datasets()
	keys := make([]string, 0, len(datasets))
	for key := range datasets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	builder.WriteString("\n\n## Datasets\n")
	for _, key := range keys {
		dataset := datasets[key]
		builder.WriteString(fmt.Sprintf("- **%s** (`%s`): %s\n", dataset.Name, dataset.Function, dataset.Description))
	}

	settings := dataProvider.ConfigDescription()
	keys = keys[:0]
	for key := range settings {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	builder.WriteString("\n## Settings\n")
	for _, key := range keys {
		builder.WriteString(fmt.Sprintf("- `%s.%s`: %s\n", dataProvider.Name(), key, settings[key]))
	}

	return builder.String()
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
