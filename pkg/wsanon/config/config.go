package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/jamesainslie/wsanon/pkg/wsanon/logging"
)

// RotationConfig configures log file rotation. MaxSize accepts sizes such
// as "5MB" or "512KiB".
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Daily      bool   `mapstructure:"daily"`
}

// LoggingConfig configures the log file.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// ManifestConfig names the files that identify a package root.
type ManifestConfig struct {
	File            string `mapstructure:"file"`
	Marker          string `mapstructure:"marker"`
	LegacyRunDepend bool   `mapstructure:"legacy_run_depend"`
}

// Config is the complete application configuration.
type Config struct {
	Output            string         `mapstructure:"output"`
	Container         string         `mapstructure:"container"`
	PreserveStructure bool           `mapstructure:"preserve_structure"`
	AddBuildTool      bool           `mapstructure:"add_buildtool"`
	BuildTool         string         `mapstructure:"buildtool"`
	Manifest          ManifestConfig `mapstructure:"manifest"`
	Exclude           []string       `mapstructure:"exclude"`
	IgnoreMarkers     []string       `mapstructure:"ignore_markers"`
	Workers           int            `mapstructure:"workers"`
	Format            string         `mapstructure:"format"`
	ReportFile        string         `mapstructure:"report_file"`
	Quiet             bool           `mapstructure:"quiet"`
	Verbose           bool           `mapstructure:"verbose"`
	Logging           LoggingConfig  `mapstructure:"logging"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("container", DefaultContainer)
	v.SetDefault("preserve_structure", false)
	v.SetDefault("add_buildtool", false)
	v.SetDefault("buildtool", DefaultBuildTool)
	v.SetDefault("manifest.file", DefaultManifestFile)
	v.SetDefault("manifest.marker", DefaultMarkerFile)
	v.SetDefault("manifest.legacy_run_depend", false)
	v.SetDefault("exclude", []string{})
	v.SetDefault("ignore_markers", []string{})
	v.SetDefault("workers", DefaultWorkers)
	v.SetDefault("format", DefaultFormat)
	v.SetDefault("report_file", "")
	v.SetDefault("quiet", false)
	v.SetDefault("verbose", false)

	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.rotation.max_size", DefaultLogMaxSize)
	v.SetDefault("logging.rotation.max_age", DefaultLogMaxAge)
	v.SetDefault("logging.rotation.max_backups", DefaultLogBackups)
	v.SetDefault("logging.rotation.daily", false)
	v.SetDefault("logging.components", map[string]string{})
}

// Setup points v at the config file and the environment. An explicit file
// replaces the search path.
func Setup(v *viper.Viper, file string) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, dir := range searchDirs() {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	SetDefaults(v)
}

// Read loads the config file into v. A missing file in the search path is
// not an error; a missing explicit file is.
func Read(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	return nil
}

// FromViper decodes the settings held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Exclude = splitList(cfg.Exclude)
	cfg.IgnoreMarkers = splitList(cfg.IgnoreMarkers)
	return &cfg, nil
}

// Load reads the configuration from the default locations and the
// environment.
func Load() (*Config, error) {
	v := viper.New()
	Setup(v, "")
	if err := Read(v); err != nil {
		return nil, err
	}
	return FromViper(v)
}

// EffectiveBuildTool returns the build tool to inject, or "" when none.
func (c *Config) EffectiveBuildTool() string {
	if !c.AddBuildTool {
		return ""
	}
	if strings.TrimSpace(c.BuildTool) == "" {
		return DefaultBuildTool
	}
	return strings.TrimSpace(c.BuildTool)
}

// LoggingOptions converts the logging section for logging.Init.
func (c *Config) LoggingOptions() (logging.Config, error) {
	rot := logging.RotationConfig{
		MaxAge:     c.Logging.Rotation.MaxAge,
		MaxBackups: c.Logging.Rotation.MaxBackups,
		Daily:      c.Logging.Rotation.Daily,
	}
	if s := strings.TrimSpace(c.Logging.Rotation.MaxSize); s != "" {
		n, err := humanize.ParseBytes(s)
		if err != nil {
			return logging.Config{}, fmt.Errorf("invalid logging.rotation.max_size %q: %w", s, err)
		}
		rot.MaxSize = int64(n)
	}

	path, err := ExpandPath(c.Logging.Path)
	if err != nil {
		return logging.Config{}, err
	}
	if path == "" {
		path = filepath.Join(StateDir(), AppName+".log")
	}

	return logging.Config{
		Level:      c.Logging.Level,
		Path:       path,
		Rotation:   rot,
		Components: c.Logging.Components,
	}, nil
}

// splitList flattens comma-separated entries, which is how list values
// arrive from environment variables.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func searchDirs() []string {
	var dirs []string
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		dirs = append(dirs, filepath.Join(home, AppName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", AppName))
	}
	return dirs
}

// Dir returns the directory holding the config file.
func Dir() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", AppName), nil
}

// Path returns the default config file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// StateDir returns $XDG_STATE_HOME/wsanon, where logs are kept.
func StateDir() string {
	return filepath.Join(xdg.StateHome, AppName)
}

// ExpandPath replaces a leading ~ with the home directory.
func ExpandPath(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// WriteDefault writes a commented default config file unless one exists.
// It returns the path and whether a file was created.
func WriteDefault() (string, bool, error) {
	path, err := Path()
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	} else if !os.IsNotExist(err) {
		return "", false, fmt.Errorf("checking %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", false, fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultFile()), 0o644); err != nil {
		return "", false, fmt.Errorf("writing default config: %w", err)
	}
	return path, true, nil
}

func defaultFile() string {
	return fmt.Sprintf(`# wsanon configuration

# Directory that receives the generated container
output: %q
# Container directory created under output (deleted and recreated each run)
container: %s

# Keep the original directory nesting, with renamed directories
preserve_structure: false

# Add a build-tool dependency to every generated manifest
add_buildtool: false
buildtool: %s

# Files identifying a package root
manifest:
  file: %s
  marker: %s
  # Read format 1 <run_depend> entries as exec_depend
  legacy_run_depend: false

# Glob patterns (relative to the source root) of directories to skip
exclude: []

# A directory containing any of these files is skipped with its subtree,
# e.g. CATKIN_IGNORE, COLCON_IGNORE, AMENT_IGNORE
ignore_markers: []

# Concurrent directory walkers
workers: %d

# Run report format (see "wsanon formats") and destination file
format: %s
report_file: ""

logging:
  # debug, info, warn, error
  level: %s
  # Empty means $XDG_STATE_HOME/wsanon/wsanon.log
  path: ""
  rotation:
    max_size: %s
    max_age: %d       # days
    max_backups: %d
    daily: false
  components: {}
`, DefaultOutput, DefaultContainer, DefaultBuildTool, DefaultManifestFile, DefaultMarkerFile,
		DefaultWorkers, DefaultFormat, DefaultLogLevel, DefaultLogMaxSize, DefaultLogMaxAge, DefaultLogBackups)
}
