package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/steveyegge/conductor/internal/config"
	"github.com/steveyegge/conductor/internal/ui"
)

type configEntryJSON struct {
	Key         string      `json:"key"`
	Value       interface{} `json:"value"`
	EnvVar      string      `json:"env,omitempty"`
	Description string      `json:"description"`
}

func newConfigCmd(cli *cliContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		GroupID: GroupSetup,
		Short:   "Show effective configuration",
		Long: `Show every configuration key with its effective value.

Values come from, highest first: flags, CONDUCTOR_* environment variables,
.conductor/config.yaml (nearest, walking up), the user config file, defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.showConfig()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print one configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k := config.LookupKey(args[0])
			if k == nil {
				return config.ValidateKey(args[0], "")
			}
			val := configValue(k)
			if cli.jsonOutput {
				return outputJSON(cli.out, configEntryJSON{Key: k.Name, Value: val, EnvVar: k.EnvVar, Description: k.Description})
			}
			fmt.Fprintln(cli.out, val)
			return nil
		},
	})
	return cmd
}

func (c *cliContext) showConfig() error {
	keys := make([]config.Key, len(config.Keys))
	copy(keys, config.Keys)
	sort.Slice(keys, func(i, j int) bool { return keys[i].Name < keys[j].Name })

	if c.jsonOutput {
		entries := make([]configEntryJSON, 0, len(keys))
		for i := range keys {
			k := &keys[i]
			entries = append(entries, configEntryJSON{Key: k.Name, Value: configValue(k), EnvVar: k.EnvVar, Description: k.Description})
		}
		return outputJSON(c.out, map[string]interface{}{
			"file": config.ConfigFileUsed(),
			"keys": entries,
		})
	}

	file := config.ConfigFileUsed()
	if file == "" {
		file = "(none)"
	}
	fmt.Fprintf(c.out, "%s %s\n\n", ui.RenderCategory("Config file:"), file)
	for i := range keys {
		k := &keys[i]
		fmt.Fprintf(c.out, "%-18s %v\n", k.Name, configValue(k))
		fmt.Fprintf(c.out, "  %s\n", ui.RenderMuted(fmt.Sprintf("%s (%s)", k.Description, k.EnvVar)))
	}
	return nil
}

// configValue returns the effective value; defaulted paths show what they
// resolve to for the current project.
func configValue(k *config.Key) interface{} {
	switch k.Name {
	case config.KeyPipelinePaths:
		return config.PipelinePaths()
	case config.KeyHooksTimeout:
		return config.HooksTimeout().String()
	case config.KeyLogLevel:
		return config.LogLevel()
	case config.KeyJSON, config.KeyEventsEnabled:
		return config.GetBool(k.Name)
	}
	return config.GetString(k.Name)
}
