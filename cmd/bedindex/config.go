package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func (a *app) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage bedindex configuration",
		Long:  "Show, get, or set configuration values. Config is stored in ~/" + configName + ".",
		Example: `  bedindex config                           # show all config
  bedindex config set index.format memory   # build RAM-resident indexes
  bedindex config get query.workers         # get a value`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConfigShow(cmd)
		},
	}

	cmd.AddCommand(a.newConfigSetCmd())
	cmd.AddCommand(a.newConfigGetCmd())

	return cmd
}

func (a *app) newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConfigSet(cmd, args[0], args[1])
		},
	}
}

func (a *app) newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConfigGet(cmd, args[0])
		},
	}
}

func (a *app) runConfigShow(cmd *cobra.Command) error {
	out, err := yaml.Marshal(a.cfg.AllSettings())
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "# Config file: %s\n", a.cfg.ConfigFileUsed())
	fmt.Fprint(cmd.OutOrStdout(), string(out))
	return nil
}

func (a *app) runConfigSet(cmd *cobra.Command, key, value string) error {
	switch value {
	case "true", "yes", "on":
		a.cfg.Set(key, true)
	case "false", "no", "off":
		a.cfg.Set(key, false)
	default:
		if n, err := strconv.Atoi(value); err == nil {
			a.cfg.Set(key, n)
		} else {
			a.cfg.Set(key, value)
		}
	}

	cfgFile := a.cfg.ConfigFileUsed()
	if cfgFile == "" {
		return fmt.Errorf("cannot determine config file location")
	}
	if err := a.cfg.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s in %s\n", key, value, cfgFile)
	return nil
}

func (a *app) runConfigGet(cmd *cobra.Command, key string) error {
	val := a.cfg.Get(key)
	if val == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Fprintln(cmd.OutOrStdout(), val)
	return nil
}
