// Package plugin resolves configured plugin ids to factories: builtin
// pipelines compiled into the host, or executables served over
// hashicorp/go-plugin.
package plugin

import (
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/go-plugin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"navplug.szuro.net/internal/anchorwatch"
	"navplug.szuro.net/internal/config"
	"navplug.szuro.net/internal/deltarate"
	"navplug.szuro.net/internal/logger"
	"navplug.szuro.net/internal/n2kbridge"
	pluginPkg "navplug.szuro.net/pkg/plugin"
)

const (
	TypeBuiltin = "builtin"
	TypeRPC     = "rpc"
)

var pluginInfo = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "navplug_plugin_info",
		Help: "Information about available plugins",
	},
	[]string{"plugin_name", "plugin_type"},
)

// LoadedPlugin is a plugin executable and its go-plugin client.
type LoadedPlugin struct {
	Name   string
	Path   string
	Client *plugin.Client
}

// Available describes a plugin the registry can instantiate.
type Available struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Path string `json:"path,omitempty"`
}

type Registry struct {
	builtins map[string]pluginPkg.Factory
	plugins  map[string]*LoadedPlugin
	mutex    sync.RWMutex
}

// NewRegistry returns a registry holding the builtin pipelines.
func NewRegistry() *Registry {
	r := &Registry{
		builtins: make(map[string]pluginPkg.Factory),
		plugins:  make(map[string]*LoadedPlugin),
	}
	r.RegisterBuiltin(anchorwatch.ID, anchorwatch.New)
	r.RegisterBuiltin(deltarate.ID, deltarate.New)
	r.RegisterBuiltin(n2kbridge.ID, n2kbridge.New)
	return r
}

func (r *Registry) RegisterBuiltin(name string, factory pluginPkg.Factory) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.builtins[name] = factory
	pluginInfo.WithLabelValues(name, TypeBuiltin).Set(1)
}

// LoadPlugin registers the executable at pluginPath under its base name.
// The process is launched on first use.
func (r *Registry) LoadPlugin(pluginPath string) (string, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	pluginName := filepath.Base(pluginPath)
	pluginName = strings.TrimSuffix(pluginName, filepath.Ext(pluginName))

	if _, exists := r.plugins[pluginName]; exists {
		logger.Debug("Plugin already loaded", slog.String("name", pluginName))
		return pluginName, nil
	}
	if _, err := exec.LookPath(pluginPath); err != nil {
		return "", fmt.Errorf("plugin %s is not executable: %w", pluginPath, err)
	}

	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig: pluginPkg.Handshake,
		Plugins: map[string]plugin.Plugin{
			pluginPkg.PluginName: &pluginPkg.NetRPCPlugin{},
		},
		Cmd:              exec.Command(pluginPath),
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolNetRPC},
		Logger:           logger.NewHCLogAdapter(pluginName),
	})

	r.plugins[pluginName] = &LoadedPlugin{Name: pluginName, Path: pluginPath, Client: client}
	pluginInfo.WithLabelValues(pluginName, TypeRPC).Set(1)
	logger.Info("Loaded plugin executable", slog.String("name", pluginName), slog.String("path", pluginPath))
	return pluginName, nil
}

// LoadPluginsFromDir loads all plugin executables from the specified directory.
func (r *Registry) LoadPluginsFromDir(pluginDir string) error {
	matches, err := filepath.Glob(filepath.Join(pluginDir, "*"))
	if err != nil {
		return fmt.Errorf("failed to list plugin files in %s: %w", pluginDir, err)
	}

	var loadErrors []string
	loadedCount := 0
	for _, pluginPath := range matches {
		if info, err := exec.LookPath(pluginPath); err != nil || info == "" {
			continue
		}
		if _, err := r.LoadPlugin(pluginPath); err != nil {
			loadErrors = append(loadErrors, fmt.Sprintf("%s: %v", pluginPath, err))
			continue
		}
		loadedCount++
	}

	if len(loadErrors) > 0 {
		logger.Warn("Failed to load some plugins", slog.String("errors", strings.Join(loadErrors, "; ")))
	}
	logger.Info("Loaded plugins from directory", slog.String("dir", pluginDir), slog.Int("count", loadedCount))
	return nil
}

// Factory resolves a configured plugin. Entries with a path load that
// executable; otherwise the id names a builtin or a loaded executable.
func (r *Registry) Factory(pc config.PluginConf) (pluginPkg.Factory, error) {
	name := pc.ID
	if !pc.IsBuiltin() {
		var err error
		if name, err = r.LoadPlugin(pc.Path); err != nil {
			return nil, err
		}
	}

	r.mutex.RLock()
	factory, builtin := r.builtins[name]
	_, loaded := r.plugins[name]
	r.mutex.RUnlock()

	switch {
	case pc.IsBuiltin() && builtin:
		return factory, nil
	case loaded:
		client, err := r.dispense(name)
		if err != nil {
			return nil, err
		}
		return func(h pluginPkg.Host) pluginPkg.Plugin {
			client.Bind(h)
			return client
		}, nil
	default:
		return nil, fmt.Errorf("plugin %s not found", name)
	}
}

func (r *Registry) dispense(name string) (*pluginPkg.RPCClient, error) {
	r.mutex.RLock()
	loadedPlugin := r.plugins[name]
	r.mutex.RUnlock()

	rpcClient, err := loadedPlugin.Client.Client()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to plugin %s: %w", name, err)
	}
	raw, err := rpcClient.Dispense(pluginPkg.PluginName)
	if err != nil {
		loadedPlugin.Client.Kill()
		return nil, fmt.Errorf("failed to dispense plugin %s: %w", name, err)
	}
	client, ok := raw.(*pluginPkg.RPCClient)
	if !ok {
		loadedPlugin.Client.Kill()
		return nil, fmt.Errorf("plugin %s did not return a valid client", name)
	}
	return client, nil
}

// CleanupAll shuts down all plugin processes.
func (r *Registry) CleanupAll() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for name, p := range r.plugins {
		logger.Info("Killing plugin", slog.String("name", name))
		p.Client.Kill()
	}
	r.plugins = make(map[string]*LoadedPlugin)
}

// ListPlugins returns every plugin the registry can instantiate, sorted by name.
func (r *Registry) ListPlugins() []Available {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make([]Available, 0, len(r.builtins)+len(r.plugins))
	for name := range r.builtins {
		out = append(out, Available{Name: name, Type: TypeBuiltin})
	}
	for name, p := range r.plugins {
		out = append(out, Available{Name: name, Type: TypeRPC, Path: p.Path})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
