package main

import (
	"log"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	"navplug.szuro.net/internal/deltarate"
	pluginPkg "navplug.szuro.net/pkg/plugin"
)

func main() {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:       deltarate.ID,
		Output:     os.Stderr,
		Level:      hclog.Info,
		JSONFormat: true,
	})
	logger.Info("Starting delta rate monitor plugin", "version", deltarate.Info.Version)

	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: pluginPkg.Handshake,
		Plugins: map[string]plugin.Plugin{
			pluginPkg.PluginName: &pluginPkg.NetRPCPlugin{Factory: deltarate.New},
		},
		Logger: logger,
	})

	log.Println("Plugin exited")
}
