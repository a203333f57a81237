package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/pdfx/internal/api"
	"github.com/jackzampolin/pdfx/internal/config"
	"github.com/jackzampolin/pdfx/internal/home"
	"github.com/jackzampolin/pdfx/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "pdfx",
	Short: "Extract structured fields from PDFs with an LLM",
	Long: `pdfx reads the first page of a PDF and asks an LLM to fill in a set of
named fields, described by a JSON object of field name to description.

Results are cached by document and schema content, so repeating a request
costs nothing. Documents can be processed one at a time over HTTP, in a
serial batch from a JSON file, or directly from the command line.`,
	Version:      version.GitRelease,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.pdfx/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "pdfx home directory (default: ~/.pdfx)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "info", "log level: debug, info, warn or error",
	)

	// Set output format and load .env files before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
		loadEnvFiles()
	}

	rootCmd.AddCommand(versionCmd)
}

// loadEnvFiles loads ./.env and <home>/.env. Variables already set in the
// environment win.
func loadEnvFiles() {
	files := []string{home.EnvFileName}
	if h, err := home.New(homeDir); err == nil {
		files = append(files, h.EnvPath())
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", f, err)
		}
	}
}

// loadConfig resolves the config file from --config, then the home
// directory, then viper's search path.
func loadConfig() (*config.Manager, error) {
	path := cfgFile
	if path == "" && homeDir != "" {
		h, err := home.New(homeDir)
		if err != nil {
			return nil, err
		}
		if h.ConfigExists() {
			path = h.ConfigPath()
		}
	}
	return config.NewManager(path)
}

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: parseLevel(logLevel),
	}))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
