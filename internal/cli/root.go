// Package cli implements the doccraft command line.
package cli

import (
	"context"
	"fmt"

	"github.com/Abraxas-365/doccraft/app"
	"github.com/Abraxas-365/doccraft/logx"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "doccraft",
	Short: "Turn PDFs into markdown documents with captioned tables",
	Long: `doccraft sends PDFs to Mistral OCR, converts the tables it finds to
markdown and asks a language model for a short caption of each one.
OCR responses are cached by source so repeated loads are free.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: configureLogging,
}

var (
	configFile string
	envFile    string
	logLevel   string
)

// appOptions are passed to app.New for every command, tests swap in fakes
var appOptions []app.Option

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "TOML configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with DOCCRAFT_ settings and API keys")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, off)")
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func configureLogging(cmd *cobra.Command, args []string) error {
	if logLevel == "" {
		return nil
	}
	level, err := logx.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	logx.SetLevel(level)
	return nil
}

// loadConfig reads configuration from the global flags plus per command overrides
func loadConfig(overrides map[string]any) (*app.Config, error) {
	return app.LoadConfig(app.LoadOptions{
		EnvFile:   envFile,
		File:      configFile,
		Overrides: overrides,
	})
}

func buildApp(cmd *cobra.Command, overrides map[string]any) (*app.App, error) {
	cfg, err := loadConfig(overrides)
	if err != nil {
		return nil, err
	}
	return app.New(cmd.Context(), cfg, appOptions...)
}

// override sets section.key in m, creating the section map
func override(m map[string]any, section, key string, value any) {
	s, _ := m[section].(map[string]any)
	if s == nil {
		s = map[string]any{}
		m[section] = s
	}
	s[key] = value
}
