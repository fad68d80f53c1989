package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/breeze-rmm/spout2media/internal/config"
)

var (
	version = "0.1.0"
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "spout-sender",
	Short: "Spout2 frame sharing sender",
	Long:  `spout-sender publishes GPU frames to Spout receivers through shared Direct3D 11 textures`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("spout-sender v%s\n", version)
	},
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config [path]",
	Short: "Write a config file with default settings",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.SaveTo(config.Default(), path); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Println("Config written.")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is spout-sender.yaml in the config directory)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sendersCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(initConfigCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads and validates the config. Warnings are logged by the
// validator; fatals are returned.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if result := cfg.ValidateTiered(); result.HasFatals() {
		for _, e := range result.Fatals {
			fmt.Fprintf(os.Stderr, "config: %v\n", e)
		}
		return nil, fmt.Errorf("invalid config (%d errors)", len(result.Fatals))
	}
	return cfg, nil
}
