// Package config loads wsanon settings with viper. Precedence, highest
// first: command-line flags, WSANON_* environment variables, the config
// file, built-in defaults.
package config

import "github.com/jamesainslie/wsanon/pkg/wsanon/tuner"

// Default configuration values.
const (
	AppName   = "wsanon"
	EnvPrefix = "WSANON"

	DefaultOutput       = "."
	DefaultContainer    = "src"
	DefaultBuildTool    = "catkin"
	DefaultFormat       = "pretty"
	DefaultManifestFile = "package.xml"
	DefaultMarkerFile   = "CMakeLists.txt"
	DefaultLogLevel     = "info"
	DefaultLogMaxSize   = "5MB"
	DefaultLogMaxAge    = 14
	DefaultLogBackups   = 3
)

// DefaultWorkers is the default number of walk workers.
var DefaultWorkers = tuner.DefaultWalkWorkers()
