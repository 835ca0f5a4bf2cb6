package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goliatone/go-datacite/core"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "DATACITE"

type rootOptions struct {
	cfgFile      string
	printMetrics bool
	v            *viper.Viper
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{v: viper.New()}

	root := &cobra.Command{
		Use:           "doictl",
		Short:         "Mint and publish DataCite DOIs",
		Long:          `doictl mints package identifiers, uploads DataCite metadata and registers DOIs with the DataCite Metadata Store.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.initConfig()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.cfgFile, "config", "c", "", "config file (default: ./doictl.yaml or ~/.config/doictl/doictl.yaml)")
	flags.String("prefix", "", "DOI prefix, e.g. 10.5072")
	flags.String("endpoint", "", "DataCite MDS endpoint")
	flags.String("account", "", "DataCite account name")
	flags.String("password", "", "DataCite account password")
	flags.Duration("timeout", core.DefaultRegistryTimeout, "registry request timeout")
	flags.String("db-driver", "sqlite3", "database driver (postgres or sqlite3)")
	flags.String("db-dsn", "", "database DSN")
	flags.Bool("cache", false, "cache identifier lookups in memory")
	flags.BoolVar(&opts.printMetrics, "print-metrics", false, "print collected counters after the command")

	bindings := map[string]string{
		"prefix":                    "prefix",
		"registry.endpoint":         "endpoint",
		"registry.account_name":     "account",
		"registry.account_password": "password",
		"registry.timeout":          "timeout",
		"database.driver":           "db-driver",
		"database.dsn":              "db-dsn",
		"cache.enabled":             "cache",
	}
	for key, flag := range bindings {
		_ = opts.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		newMigrateCmd(opts),
		newMintCmd(opts),
		newEnsureCmd(opts),
		newIdentifierCmd(opts),
		newPublishCmd(opts),
		newDOICmd(opts),
		newMetadataCmd(opts),
		newMediaCmd(opts),
	)
	return root
}

func (o *rootOptions) initConfig() error {
	v := o.v
	defaults := core.DefaultConfig()
	v.SetDefault("service_name", defaults.ServiceName)
	v.SetDefault("prefix", "")
	v.SetDefault("registry.endpoint", "")
	v.SetDefault("registry.account_name", "")
	v.SetDefault("registry.account_password", "")
	v.SetDefault("registry.timeout", defaults.Registry.Timeout)
	v.SetDefault("minting.max_attempts", defaults.Minting.MaxAttempts)
	v.SetDefault("minting.upper_bound", defaults.Minting.UpperBound)
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.debug", false)
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttl", 5*time.Minute)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if o.cfgFile != "" {
		v.SetConfigFile(o.cfgFile)
		return v.ReadInConfig()
	}
	v.SetConfigName("doictl")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "doictl"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}
	return nil
}

// coreSettings is the raw map handed to the cfgx config provider.
func (o *rootOptions) coreSettings() map[string]any {
	v := o.v
	return map[string]any{
		"service_name": v.GetString("service_name"),
		"prefix":       v.GetString("prefix"),
		"registry": map[string]any{
			"endpoint":         v.GetString("registry.endpoint"),
			"account_name":     v.GetString("registry.account_name"),
			"account_password": v.GetString("registry.account_password"),
			"timeout":          v.GetDuration("registry.timeout"),
		},
		"minting": map[string]any{
			"max_attempts": v.GetInt("minting.max_attempts"),
			"upper_bound":  v.GetInt("minting.upper_bound"),
		},
	}
}
