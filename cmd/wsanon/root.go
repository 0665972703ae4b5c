package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/wsanon/pkg/wsanon/config"
	"github.com/jamesainslie/wsanon/pkg/wsanon/engine"
	"github.com/jamesainslie/wsanon/pkg/wsanon/logging"
)

var (
	cfgFile string
	cfgErr  error

	rootCmd = &cobra.Command{
		Use:   "wsanon [flags] <source>",
		Short: "Anonymize the layout of a catkin workspace",
		Long: `wsanon copies the package graph of a catkin/ROS workspace without its
names. Every package found under <source> (a directory holding both
package.xml and CMakeLists.txt) becomes package00000001, package00000002, ...
and its dependencies on other workspace packages are kept under the new names.
Only package.xml files are written, below <output>/<container>.

The container directory is deleted and recreated on every run.

Examples:
  wsanon ~/ws/src                      # Flat output in ./src
  wsanon -d ~/ws/src                   # Keep nesting, rename directories
  wsanon -c -O /tmp/anon ~/ws/src      # Add catkin build-tool dependency
  wsanon -e 'build' --ignore-marker CATKIN_IGNORE ~/ws/src
  wsanon -f json --report-file key.json ~/ws/src
  wsanon config show                   # Show configuration`,
		Args:          cobra.ExactArgs(1),
		RunE:          runAnonymize,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/wsanon/config.yaml)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output on stderr")

	flags := rootCmd.Flags()
	flags.BoolP("copy-directory-structure", "d", false, "keep directory nesting with renamed directories")
	flags.BoolP("add-buildtool-catkin", "c", false, "add a build-tool dependency to every manifest")
	flags.String("buildtool", "", "build-tool package to add (default: catkin)")
	flags.StringP("output", "O", "", "directory receiving the container (default: .)")
	flags.String("container", "", "container directory name (default: src)")
	flags.StringSliceP("exclude", "e", nil, "glob of directories to skip (can be specified multiple times)")
	flags.StringSlice("ignore-marker", nil, "file name that excludes its directory (can be specified multiple times)")
	flags.Bool("legacy-run-depend", false, "read format 1 <run_depend> as exec_depend")
	flags.IntP("workers", "w", 0, "override walk worker count (0=auto)")
	flags.StringP("format", "f", "", "write the run report in this format (see 'wsanon formats')")
	flags.String("report-file", "", "write the run report to this file instead of stdout")

	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("preserve_structure", flags.Lookup("copy-directory-structure"))
	_ = viper.BindPFlag("add_buildtool", flags.Lookup("add-buildtool-catkin"))
	_ = viper.BindPFlag("buildtool", flags.Lookup("buildtool"))
	_ = viper.BindPFlag("output", flags.Lookup("output"))
	_ = viper.BindPFlag("container", flags.Lookup("container"))
	_ = viper.BindPFlag("exclude", flags.Lookup("exclude"))
	_ = viper.BindPFlag("ignore_markers", flags.Lookup("ignore-marker"))
	_ = viper.BindPFlag("manifest.legacy_run_depend", flags.Lookup("legacy-run-depend"))
	_ = viper.BindPFlag("workers", flags.Lookup("workers"))
	_ = viper.BindPFlag("format", flags.Lookup("format"))
	_ = viper.BindPFlag("report_file", flags.Lookup("report-file"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	v := viper.GetViper()
	config.Setup(v, cfgFile)
	cfgErr = config.Read(v)
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError("%v", err)
	}
	return err
}

func runAnonymize(cmd *cobra.Command, args []string) error {
	if cfgErr != nil {
		return cfgErr
	}
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return err
	}

	if err := initLogging(cfg); err != nil {
		return err
	}
	defer func() { _ = logging.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := buildOptions(args[0], cfg)
	opts.OnScanned = func(n int) {
		printInfo("Found %d packages.", n)
	}

	result, err := engine.Run(ctx, opts)
	if err != nil {
		return err
	}

	printVerbose("Wrote %d manifests to %s", result.Written.Manifests, result.Written.Root)

	if wantReport(cmd.Flags().Changed("format"), cfg) {
		if err := writeReport(result, cfg); err != nil {
			return err
		}
	}
	return nil
}

// initLogging starts file logging, plus stderr output when verbose.
func initLogging(cfg *config.Config) error {
	lc, err := cfg.LoggingOptions()
	if err != nil {
		return err
	}
	lc.ConsoleLevel = "warn"
	if cfg.Verbose {
		lc.ConsoleLevel = "debug"
	}
	if cfg.Quiet {
		lc.ConsoleLevel = "error"
	}
	lc.Console = os.Stderr
	if err := logging.Init(lc); err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	return nil
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
