package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/certhook/certhook/internal/deploy"
	"github.com/certhook/certhook/internal/ui"
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy issued certificates outside the hook lifecycle",
	Long: "Runs the file deployment for every domain in the deployment config,\n" +
		"sourcing certificate material from the dehydrated certs directory, and\n" +
		"runs the configured post-deployment actions if anything changed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			ui.Error("%v", err)
			return err
		}

		dcfg, err := deploy.LoadConfig(cfg.DeployConfig)
		if err != nil {
			ui.Error("%v", err)
			return err
		}

		d := deploy.New(dcfg, cfg.CertsRoot, cfg.PostActionTimeout)
		if err := d.DeployAll(cmd.Context()); err != nil {
			ui.Error("%v", err)
			return fmt.Errorf("deployment finished with failures: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deployCmd)
}
