package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/certhook/certhook/internal/config"
	"github.com/certhook/certhook/internal/dns"
	_ "github.com/certhook/certhook/internal/dns/dreamhost"
	"github.com/certhook/certhook/internal/hook"
	"github.com/certhook/certhook/internal/ui"
)

var (
	envFileFlag      string
	deployConfigFlag string
)

var rootCmd = &cobra.Command{
	Use:   "certhook <event> [args...]",
	Short: "certhook - dehydrated DNS-01 challenge hook",
	Long: "certhook answers dehydrated hook events: it publishes and retracts the\n" +
		"_acme-challenge TXT record through the configured DNS provider and deploys\n" +
		"issued certificate material per a YAML deployment config.",
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			ui.Error("%v", err)
			return err
		}

		inv, err := hook.ParseInvocation(args)
		if err != nil {
			ui.Error("%v", err)
			return err
		}

		// Fail fast on a missing credential, before any network action.
		if err := cfg.RequireAPIKey(); err != nil {
			ui.Error("%v", err)
			return err
		}

		var provider dns.Provider
		if inv.Kind.NeedsDNS() {
			provider, err = dns.Load(cfg.Provider, cfg)
			if err != nil {
				ui.Error("%v", err)
				return err
			}
		}

		if err := hook.New(cfg, provider).Run(cmd.Context(), inv); err != nil {
			ui.Error("%v", err)
			return err
		}
		return nil
	},
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(envFileFlag)
	if err != nil {
		return nil, err
	}
	if deployConfigFlag != "" {
		cfg.DeployConfig = deployConfigFlag
	}
	return cfg, nil
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFileFlag, "env-file", "", "Env file to load before reading the environment (e.g. /etc/dehydrated/dreamhost.env)")
	rootCmd.PersistentFlags().StringVar(&deployConfigFlag, "deploy-config", "", "Path to the YAML deployment config (default ~/.config/dehydrated/deploy.conf)")
}
