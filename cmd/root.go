package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jamalpur-chamber/chamber/internal/config"
	"github.com/jamalpur-chamber/chamber/internal/logging"
	"github.com/jamalpur-chamber/chamber/internal/output"
	"github.com/spf13/cobra"
)

var (
	versionStr string

	cfg    config.Config
	logger *slog.Logger
)

// SetVersion sets the version string
func SetVersion(v string) {
	versionStr = v
}

var rootCmd = &cobra.Command{
	Use:   "chamber",
	Short: "Terminal client for the Jamalpur Chamber portal",
	Long: `chamber - A terminal client for the Jamalpur Chamber of Commerce and Industry portal.

Browse notices and the gallery with live updates, download notice PDFs, and manage
your account from the command line.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// nameWithAliases returns "name, alias1, alias2" if aliases exist, else just "name"
func nameWithAliases(cmd *cobra.Command) string {
	if len(cmd.Aliases) > 0 {
		return cmd.Name() + ", " + strings.Join(cmd.Aliases, ", ")
	}
	return cmd.Name()
}

func init() {
	// Add custom template function for showing aliases
	cobra.AddTemplateFunc("nameWithAliases", nameWithAliases)

	// Custom usage template that shows aliases inline
	usageTemplate := `Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}{{$cmds := .Commands}}{{if eq (len .Groups) 0}}

Available Commands:{{range $cmds}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad (nameWithAliases .) (add .NamePadding 8)}} {{.Short}}{{end}}{{end}}{{else}}{{range $group := .Groups}}

{{.Title}}{{range $cmds}}{{if (and (eq .GroupID $group.ID) (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad (nameWithAliases .) (add .NamePadding 8)}} {{.Short}}{{end}}{{end}}{{end}}{{if not .AllChildCommandsHaveGroup}}

Additional Commands:{{range $cmds}}{{if (and (eq .GroupID "") (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad (nameWithAliases .) (add .NamePadding 8)}} {{.Short}}{{end}}{{end}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasHelpSubCommands}}

Additional help topics:{{range .Commands}}{{if .IsAdditionalHelpTopicCommand}}
  {{rpad .CommandPath .CommandPathPadding}} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`

	// Need to add the 'add' function for padding calculation
	cobra.AddTemplateFunc("add", func(a, b int) int { return a + b })

	rootCmd.SetUsageTemplate(usageTemplate)

	// Define command groups for organized help output
	rootCmd.AddGroup(
		&cobra.Group{ID: "portal", Title: "Portal Commands:"},
		&cobra.Group{ID: "content", Title: "Content Commands:"},
		&cobra.Group{ID: "account", Title: "Account Commands:"},
		&cobra.Group{ID: "system", Title: "System Commands:"},
	)

	// Assign built-in commands to system group
	rootCmd.SetHelpCommandGroupID("system")
	rootCmd.SetCompletionCommandGroupID("system")

	rootCmd.PersistentFlags().String("store", "", "Storage backend: sqlite, badger or memory (default $CHAMBER_STORE or sqlite)")
	rootCmd.PersistentFlags().String("data-dir", "", "Data directory (default $CHAMBER_DATA_DIR or ~/.config/chamber)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (default $CHAMBER_LOG_LEVEL or warn)")
}

// loadConfig resolves the environment, applies flag overrides and installs
// the logger.
func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load()
	if err != nil {
		output.Error("%v", err)
		return err
	}
	flags := cmd.Flags()
	if v, _ := flags.GetString("store"); v != "" {
		c.Store = v
	}
	if v, _ := flags.GetString("data-dir"); v != "" {
		c.DataDir = v
	}
	if v, _ := flags.GetString("log-level"); v != "" {
		c.LogLevel = v
	}
	if err := c.Validate(); err != nil {
		output.Error("%v", err)
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cfg = c
	logger = logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	return nil
}
