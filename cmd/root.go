package cmd

import (
	"github.com/spf13/cobra"

	"github.com/weiawesome/asg-rev/internal/config"
	pkglog "github.com/weiawesome/asg-rev/pkg/log"
)

const serviceName = "asg-rev-chat"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "asg-rev",
	Short: "Realtime group chat: websocket rooms, history, presence, attachments",
	RunE:  runServe,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./config", "directory containing config.yaml")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

// loadConfig reads configuration and initialises the global logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Pretty || cfg.Log.Level == "debug",
		ServiceName: serviceName,
	})
	return cfg, nil
}
