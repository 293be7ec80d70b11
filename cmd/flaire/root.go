package main

import (
	"os"

	"flaire-cli/internal/api"
	"flaire-cli/internal/config"
	"flaire-cli/internal/models"
	"flaire-cli/internal/session"
	"flaire-cli/internal/storage"
	"flaire-cli/internal/usage"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// appContext lazily wires the config, state database, backend client,
// session store and usage tracker shared by every command.
type appContext struct {
	configPath string

	cfg     *config.Config
	db      *storage.DB
	client  *api.Client
	store   *session.Store
	tracker *usage.Tracker
}

func newAppContext() *appContext {
	return &appContext{}
}

func (a *appContext) ensure() error {
	if a.cfg != nil {
		return nil
	}

	path := a.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	setupLogger(cfg.Log.Level)

	db, err := storage.Open(cfg.State.DBPath)
	if err != nil {
		return err
	}

	client := api.New(cfg.API.BaseURL, cfg.API.Timeout())
	store := session.New(db, client)

	tracker := usage.NewTracker(currentPlan(store))
	store.OnPlanChange(tracker.SetPlan)

	a.cfg = cfg
	a.db = db
	a.client = client
	a.store = store
	a.tracker = tracker
	return nil
}

func currentPlan(store *session.Store) models.PlanTier {
	if sess := store.Current(); sess != nil {
		return sess.Plan
	}
	return models.PlanFree
}

func (a *appContext) close() {
	if a.db != nil {
		a.db.Close()
	}
}

func newRootCommand(app *appContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "flaire",
		Short:         "Flaire dating-copilot client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.ensure()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&app.configPath, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newRegisterCommand(app))
	rootCmd.AddCommand(newSignInCommand(app))
	rootCmd.AddCommand(newSignUpCommand(app))
	rootCmd.AddCommand(newSignOutCommand(app))
	rootCmd.AddCommand(newWhoamiCommand(app))
	rootCmd.AddCommand(newRefreshCommand(app))
	rootCmd.AddCommand(newUpgradeCommand(app))
	rootCmd.AddCommand(newPhotosCommand(app))
	rootCmd.AddCommand(newProfileCommand(app))
	rootCmd.AddCommand(newOpenersCommand(app))

	return rootCmd
}

// setupLogger configures the global zerolog logger.
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
