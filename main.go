package main

import (
	"fmt"
	"os"

	"github.com/jondoveston/sensortop/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

var cfgFile string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sensortop",
	Short: "Host metrics endpoint and terminal dashboard",
	Long: `sensortop samples CPU, memory, load, process, disk and authentication
log data from the local host and serves it as a JSON snapshot. The dashboard
polls that snapshot (or node_exporter / Prometheus) and charts the last
five minutes.

Examples:
  sensortop serve --listen-addr :8080
  sensortop dashboard --sensor-url http://web-01:8080/sensor
  sensortop dashboard --source prometheus --sensor-url http://prometheus.lan:9090
  SENSORTOP_SENSOR_URL=http://web-01:8080/sensor sensortop dashboard`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.Setup(viper.GetViper(), cfgFile)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			fmt.Printf("sensortop version %s\n", version)
			return nil
		}
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./sensortop.yaml or $HOME/.config/sensortop/sensortop.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().Bool("log-json", false, "write logs as JSON")
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")

	// dashes in flags become underscores in viper keys
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_json", rootCmd.PersistentFlags().Lookup("log-json"))

	rootCmd.AddCommand(serveCmd, dashboardCmd)
}
