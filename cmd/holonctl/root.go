package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JamesPrial/holon-descriptors/internal/descriptors"
	"github.com/JamesPrial/holon-descriptors/internal/store"
	"github.com/JamesPrial/holon-descriptors/pkg/config"
	"github.com/JamesPrial/holon-descriptors/pkg/logging"
)

const (
	FlagConfig = "config"
	FlagEnv    = "env"
	FlagDB     = "db"
	FlagOutput = "output"
	FlagKind   = "kind"
)

// app holds what the store-backed commands share for one invocation
type app struct {
	settings *config.Settings
	backend  store.Backend
	service  *descriptors.Service
}

// New builds the holonctl command tree
func New() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "holonctl [sub-command]",
		Short: "Validate, store and inspect holon descriptors",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: a.load,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}

	cmd.PersistentFlags().String(FlagConfig, "", "path to a YAML configuration file")
	cmd.PersistentFlags().String(FlagEnv, ".env", "path to a .env file with HOLON_* overrides")
	cmd.PersistentFlags().String(FlagDB, "", "SQLite database to use, overriding storageType and storagePath")

	cmd.AddCommand(newValidateCmd(a))
	cmd.AddCommand(newSchemaCmd())
	cmd.AddCommand(newSeedCmd(a))
	cmd.AddCommand(newListCmd(a))
	cmd.AddCommand(newGetCmd(a))
	return cmd
}

// load reads the settings every sub-command needs. The store is opened
// lazily by open.
func (a *app) load(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	configPath, err := flags.GetString(FlagConfig)
	if err != nil {
		return fmt.Errorf("getting config flag failed: %w", err)
	}
	envFile, err := flags.GetString(FlagEnv)
	if err != nil {
		return fmt.Errorf("getting env flag failed: %w", err)
	}
	dbPath, err := flags.GetString(FlagDB)
	if err != nil {
		return fmt.Errorf("getting db flag failed: %w", err)
	}

	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}
	settings, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration failed: %w", err)
	}
	if dbPath != "" {
		settings.StorageType = "sqlite"
		settings.StoragePath = dbPath
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.LogLevel(settings.LogLevel)
	logCfg.Format = logging.LogFormatText
	if err := logging.InitializeWithWriter(logCfg, cmd.ErrOrStderr()); err != nil {
		return fmt.Errorf("initializing logging failed: %w", err)
	}

	a.settings = settings
	return nil
}

// open connects the configured store on first use
func (a *app) open() (*descriptors.Service, error) {
	if a.service != nil {
		return a.service, nil
	}
	validation := a.settings.ValidationOptions()

	backend, err := store.NewBackend(a.settings, store.WithValidator(descriptors.Integrity(validation...)))
	if err != nil {
		return nil, fmt.Errorf("opening %s store failed: %w", a.settings.StorageType, err)
	}
	a.backend = backend
	a.service = descriptors.NewService(backend,
		descriptors.WithValidationOptions(validation...),
		descriptors.WithReadConcurrency(a.settings.Service.ReadConcurrency),
	)
	return a.service, nil
}

func (a *app) close() error {
	if a.backend == nil {
		return nil
	}
	err := a.backend.Close()
	a.backend, a.service = nil, nil
	return err
}
