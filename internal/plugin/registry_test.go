package plugin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"navplug.szuro.net/internal/anchorwatch"
	"navplug.szuro.net/internal/config"
	"navplug.szuro.net/internal/deltarate"
	"navplug.szuro.net/internal/n2kbridge"
	"navplug.szuro.net/pkg/plugin/plugintest"
)

func TestBuiltinFactories(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		id   string
		name string
	}{
		{anchorwatch.ID, anchorwatch.Info.Name},
		{deltarate.ID, deltarate.Info.Name},
		{n2kbridge.ID, n2kbridge.Info.Name},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			factory, err := r.Factory(config.PluginConf{ID: tt.id})
			require.NoError(t, err)
			p := factory(&plugintest.Recorder{})
			require.Equal(t, tt.id, p.Info().ID)
			require.Equal(t, tt.name, p.Info().Name)
		})
	}
}

func TestUnknownPlugin(t *testing.T) {
	r := NewRegistry()
	_, err := r.Factory(config.PluginConf{ID: "autopilot"})
	require.ErrorContains(t, err, "not found")

	_, err = r.Factory(config.PluginConf{ID: "x", Path: filepath.Join(t.TempDir(), "missing")})
	require.Error(t, err)
}

func TestLoadPluginsFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("docs"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "depth_alarm"), []byte("#!/bin/sh\n"), 0o755))

	r := NewRegistry()
	require.NoError(t, r.LoadPluginsFromDir(dir))
	defer r.CleanupAll()

	available := r.ListPlugins()
	require.Len(t, available, 4)
	require.Equal(t, Available{Name: anchorwatch.ID, Type: TypeBuiltin}, available[0])
	require.Equal(t, deltarate.ID, available[1].Name)
	require.Equal(t, "depth_alarm", available[2].Name)
	require.Equal(t, TypeRPC, available[2].Type)
}
