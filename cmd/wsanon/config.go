package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/wsanon/pkg/wsanon/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage wsanon configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/wsanon/config.yaml (if set)
  2. ~/.config/wsanon/config.yaml

Environment variables can override config file settings using the WSANON_ prefix:
  WSANON_CONTAINER=src
  WSANON_PRESERVE_STRUCTURE=true
  WSANON_EXCLUDE=build,devel
  WSANON_LOGGING_LEVEL=debug`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration settings from all sources.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long:  `Create a default configuration file if one doesn't exist.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// envKeys lists the settings shown by "config show", in display order.
var envKeys = []string{
	"output",
	"container",
	"preserve_structure",
	"add_buildtool",
	"buildtool",
	"manifest.file",
	"manifest.marker",
	"manifest.legacy_run_depend",
	"exclude",
	"ignore_markers",
	"workers",
	"format",
	"report_file",
	"logging.level",
	"logging.path",
	"logging.rotation.max_size",
	"logging.rotation.max_age",
	"logging.rotation.max_backups",
	"logging.rotation.daily",
}

// envName returns the environment variable that overrides key.
func envName(key string) string {
	return config.EnvPrefix + "_" + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if cfgErr != nil {
		printError("Failed to load configuration: %v", cfgErr)
	}
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return err
	}

	if file := viper.ConfigFileUsed(); file != "" && cfgErr == nil {
		fmt.Printf("Config file: %s\n\n", file)
	} else {
		fmt.Println("Config file: (using defaults, no file found)")
		fmt.Println()
	}

	fmt.Println("Current Configuration:")
	fmt.Println("----------------------")
	fmt.Printf("output:                        %s\n", cfg.Output)
	fmt.Printf("container:                     %s\n", cfg.Container)
	fmt.Printf("preserve_structure:            %t\n", cfg.PreserveStructure)
	fmt.Printf("add_buildtool:                 %t\n", cfg.AddBuildTool)
	fmt.Printf("buildtool:                     %s\n", cfg.BuildTool)
	fmt.Printf("manifest.file:                 %s\n", cfg.Manifest.File)
	fmt.Printf("manifest.marker:               %s\n", cfg.Manifest.Marker)
	fmt.Printf("manifest.legacy_run_depend:    %t\n", cfg.Manifest.LegacyRunDepend)
	fmt.Printf("exclude:                       %v\n", cfg.Exclude)
	fmt.Printf("ignore_markers:                %v\n", cfg.IgnoreMarkers)
	fmt.Printf("workers:                       %d\n", cfg.Workers)
	fmt.Printf("format:                        %s\n", cfg.Format)
	fmt.Printf("report_file:                   %s\n", cfg.ReportFile)
	fmt.Printf("logging.level:                 %s\n", cfg.Logging.Level)
	fmt.Printf("logging.path:                  %s\n", cfg.Logging.Path)
	fmt.Printf("logging.rotation.max_size:     %s\n", cfg.Logging.Rotation.MaxSize)
	fmt.Printf("logging.rotation.max_age:      %d days\n", cfg.Logging.Rotation.MaxAge)
	fmt.Printf("logging.rotation.max_backups:  %d\n", cfg.Logging.Rotation.MaxBackups)
	fmt.Printf("logging.rotation.daily:        %t\n", cfg.Logging.Rotation.Daily)

	fmt.Println("\nEnvironment Overrides:")
	fmt.Println("----------------------")
	found := false
	for _, key := range envKeys {
		name := envName(key)
		if val := os.Getenv(name); val != "" {
			fmt.Printf("%s=%s\n", name, val)
			found = true
		}
	}
	if !found {
		fmt.Println("(none)")
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, created, err := config.WriteDefault()
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	if !created {
		printInfo("Config file already exists: %s", path)
		return nil
	}
	printInfo("Created default config file: %s", path)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path, err := config.Path()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	fmt.Println(path)

	if _, err := os.Stat(path); err == nil {
		printVerbose("File exists")
	} else if os.IsNotExist(err) {
		printVerbose("File does not exist (will use defaults)")
	}
	return nil
}
