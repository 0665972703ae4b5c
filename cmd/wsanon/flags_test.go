package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/wsanon/pkg/wsanon/config"
	"github.com/jamesainslie/wsanon/pkg/wsanon/engine"
)

// loadConfig resets viper and returns the configuration after setup runs.
func loadConfig(t *testing.T, setup func(v *viper.Viper)) *config.Config {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")

	viper.Reset()
	t.Cleanup(viper.Reset)

	v := viper.GetViper()
	config.Setup(v, "")
	require.NoError(t, config.Read(v))
	if setup != nil {
		setup(v)
	}
	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	return cfg
}

func TestBuildOptions(t *testing.T) {
	tests := []struct {
		name  string
		setup func(v *viper.Viper)
		check func(t *testing.T, o engine.Options)
	}{
		{
			name: "defaults",
			check: func(t *testing.T, o engine.Options) {
				assert.Equal(t, "/ws/src", o.Source)
				assert.Equal(t, ".", o.Output)
				assert.Equal(t, "src", o.Container)
				assert.False(t, o.PreserveStructure)
				assert.Empty(t, o.BuildTool)
				assert.Equal(t, "package.xml", o.ManifestFile)
				assert.Equal(t, "CMakeLists.txt", o.MarkerFile)
				assert.Empty(t, o.Exclude)
				assert.Equal(t, config.DefaultWorkers, o.Workers)
			},
		},
		{
			name: "catkin build tool",
			setup: func(v *viper.Viper) {
				v.Set("add_buildtool", true)
			},
			check: func(t *testing.T, o engine.Options) {
				assert.Equal(t, "catkin", o.BuildTool)
			},
		},
		{
			name: "custom build tool ignored unless enabled",
			setup: func(v *viper.Viper) {
				v.Set("buildtool", "ament_cmake")
			},
			check: func(t *testing.T, o engine.Options) {
				assert.Empty(t, o.BuildTool)
			},
		},
		{
			name: "structure and filters",
			setup: func(v *viper.Viper) {
				v.Set("preserve_structure", true)
				v.Set("output", "/tmp/out")
				v.Set("container", "ws")
				v.Set("exclude", []string{"build", "devel"})
				v.Set("ignore_markers", []string{"CATKIN_IGNORE"})
				v.Set("manifest.legacy_run_depend", true)
				v.Set("workers", 1)
			},
			check: func(t *testing.T, o engine.Options) {
				assert.True(t, o.PreserveStructure)
				assert.Equal(t, "/tmp/out", o.Output)
				assert.Equal(t, "ws", o.Container)
				assert.Equal(t, []string{"build", "devel"}, o.Exclude)
				assert.Equal(t, []string{"CATKIN_IGNORE"}, o.IgnoreMarkers)
				assert.True(t, o.LegacyRunDepend)
				assert.Equal(t, 1, o.Workers)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadConfig(t, tt.setup)
			tt.check(t, buildOptions("/ws/src", cfg))
		})
	}
}

func TestWantReport(t *testing.T) {
	tests := []struct {
		name       string
		formatFlag bool
		reportFile string
		want       bool
	}{
		{"nothing requested", false, "", false},
		{"format flag", true, "", true},
		{"report file", false, "key.json", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Format: config.DefaultFormat, ReportFile: tt.reportFile}
			assert.Equal(t, tt.want, wantReport(tt.formatFlag, cfg))
		})
	}
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "WSANON_CONTAINER", envName("container"))
	assert.Equal(t, "WSANON_MANIFEST_LEGACY_RUN_DEPEND", envName("manifest.legacy_run_depend"))
	assert.Equal(t, "WSANON_LOGGING_ROTATION_MAX_SIZE", envName("logging.rotation.max_size"))
}

func TestWriteReport_File(t *testing.T) {
	cfg := loadConfig(t, nil)

	src := t.TempDir()
	pkg := filepath.Join(src, "alpha")
	require.NoError(t, os.MkdirAll(pkg, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pkg, "package.xml"),
		[]byte(`<package format="2"><name>alpha</name></package>`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(pkg, "CMakeLists.txt"), nil, 0o644))

	opts := buildOptions(src, cfg)
	opts.Output = t.TempDir()
	result, err := engine.Run(context.Background(), opts)
	require.NoError(t, err)

	cfg.Format = "json"
	cfg.ReportFile = filepath.Join(t.TempDir(), "reports", "key.json")
	require.NoError(t, writeReport(result, cfg))

	data, err := os.ReadFile(cfg.ReportFile)
	require.NoError(t, err)

	var report struct {
		Packages []struct {
			Name  string `json:"name"`
			Token string `json:"token"`
		} `json:"packages"`
	}
	require.NoError(t, json.Unmarshal(data, &report))
	require.Len(t, report.Packages, 1)
	assert.Equal(t, "alpha", report.Packages[0].Name)
	assert.Equal(t, "package00000001", report.Packages[0].Token)

	info, err := os.Stat(cfg.ReportFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestWriteReport_UnknownFormat(t *testing.T) {
	cfg := loadConfig(t, nil)

	src := t.TempDir()
	opts := buildOptions(src, cfg)
	opts.Output = t.TempDir()
	result, err := engine.Run(context.Background(), opts)
	require.NoError(t, err)

	cfg.Format = "xml"
	cfg.ReportFile = filepath.Join(t.TempDir(), "key.xml")
	assert.Error(t, writeReport(result, cfg))
}
