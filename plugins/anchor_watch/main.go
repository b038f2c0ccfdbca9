package main

import (
	"log"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	"navplug.szuro.net/internal/anchorwatch"
	pluginPkg "navplug.szuro.net/pkg/plugin"
)

func main() {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:       anchorwatch.ID,
		Output:     os.Stderr,
		Level:      hclog.Info,
		JSONFormat: true,
	})
	logger.Info("Starting anchor watch plugin", "version", anchorwatch.Info.Version)

	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: pluginPkg.Handshake,
		Plugins: map[string]plugin.Plugin{
			pluginPkg.PluginName: &pluginPkg.NetRPCPlugin{Factory: anchorwatch.New},
		},
		Logger: logger,
	})

	log.Println("Plugin exited")
}
