package cmd

import (
	"fmt"
	"strconv"

	"github.com/jamalpur-chamber/chamber/internal/output"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Show the resolved configuration",
	Long:    `Print the settings chamber runs with, after environment variables and global flags are applied.`,
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOut, _ := cmd.Flags().GetBool("json")

		dataDir, err := cfg.DataPath()
		if err != nil {
			return fail(jsonOut, err)
		}
		entries := [][2]string{
			{"mode", cfg.Mode},
			{"api_url", cfg.APIBaseURL()},
			{"socket_url", cfg.SocketURL},
			{"websocket", strconv.FormatBool(cfg.SocketEnabled())},
			{"store", cfg.Store},
			{"data_dir", dataDir},
			{"log_level", cfg.LogLevel},
			{"log_format", cfg.LogFormat},
			{"http_timeout", cfg.HTTPTimeout.String()},
			{"reconnect_delay", cfg.ReconnectDelay.String()},
			{"reconnect_attempts", strconv.Itoa(cfg.ReconnectAttempts)},
			{"verify_timeout", cfg.VerifyTimeout.String()},
			{"print_command", cfg.PrintCommand},
		}

		if jsonOut {
			m := make(map[string]string, len(entries))
			for _, e := range entries {
				m[e[0]] = e[1]
			}
			return output.JSON(m)
		}
		for _, e := range entries {
			fmt.Printf("%-20s %s\n", e[0], e[1])
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Show version",
	GroupID: "system",
	Run: func(cmd *cobra.Command, args []string) {
		short, _ := cmd.Flags().GetBool("short")
		if short {
			fmt.Print(versionStr)
			return
		}
		fmt.Printf("chamber version %s\n", versionStr)
	},
}

func init() {
	configCmd.Flags().Bool("json", false, "JSON output")
	versionCmd.Flags().Bool("short", false, "Print only the version string")
	rootCmd.AddCommand(configCmd, versionCmd)
}
