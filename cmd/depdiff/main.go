package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quantmind-br/depdiff/internal/app"
	"github.com/quantmind-br/depdiff/internal/config"
	"github.com/quantmind-br/depdiff/internal/parser"
	"github.com/quantmind-br/depdiff/internal/report"
	"github.com/quantmind-br/depdiff/internal/utils"
	"github.com/quantmind-br/depdiff/pkg/version"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "depdiff [file]",
	Short: "Show the source-code change behind each dependency upgrade",
	Long: `depdiff reads a unified diff of a requirements listing (from a file or
stdin) and retrieves, for every package version bump, the actual source
change between the two releases so the upgrade can be audited for
supply-chain risk.

For each package it first tries to clone the source repository and diff the
release tags; when that is unavailable it falls back to downloading and
comparing the released archives.`,
	Version: version.Short(),
	Args:    cobra.MaximumNArgs(1),
	RunE:    run,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.depdiff/config.yaml)")
	rootCmd.PersistentFlags().IntP("workers", "j", config.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().Duration("timeout", config.DefaultTimeout, "Per-operation timeout")
	rootCmd.PersistentFlags().String("workspace", "", "Workspace root for temporary clones and downloads")
	rootCmd.PersistentFlags().String("registry-url", config.DefaultRegistryURL, "Package registry base URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	_ = viper.BindPFlag("concurrency.workers", rootCmd.PersistentFlags().Lookup("workers"))
	_ = viper.BindPFlag("concurrency.timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	_ = viper.BindPFlag("workspace.root", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("registry.base_url", rootCmd.PersistentFlags().Lookup("registry-url"))

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print detailed version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Full())
	},
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logLevel := cfg.Logging.Level
	if verbose {
		logLevel = "debug"
	}
	log := utils.NewLogger(utils.LoggerOptions{
		Level:   logLevel,
		Format:  cfg.Logging.Format,
		Verbose: verbose,
	})

	input, err := readInput(args)
	if err != nil {
		return err
	}

	changes, err := parser.NewParser().Parse(input)
	if err != nil {
		return fmt.Errorf("failed to parse input: %w", err)
	}
	if len(changes) == 0 {
		log.Info().Msg("No dependency changes detected")
		return nil
	}

	log.Info().Int("changes", len(changes)).Msg("Parsed dependency changes")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("Shutting down gracefully...")
		cancel()
	}()

	orchestrator, err := app.NewOrchestrator(app.Options{
		Config:       cfg,
		Logger:       log,
		ShowProgress: !verbose,
	})
	if err != nil {
		return err
	}

	results, err := orchestrator.Run(ctx, changes)
	if len(results) > 0 {
		fmt.Println(report.NewGenerator().Generate(results))
	}
	return err
}

// readInput reads the requirements diff from the file argument, or stdin
// when no argument is given.
func readInput(args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", args[0], err)
		}
		return string(content), nil
	}

	content, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(content), nil
}
