package main

import (
	"log"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	"navplug.szuro.net/internal/n2kbridge"
	pluginPkg "navplug.szuro.net/pkg/plugin"
)

func main() {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:       n2kbridge.ID,
		Output:     os.Stderr,
		Level:      hclog.Info,
		JSONFormat: true,
	})
	logger.Info("Starting NMEA 0183 to NMEA 2000 plugin", "version", n2kbridge.Info.Version)

	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: pluginPkg.Handshake,
		Plugins: map[string]plugin.Plugin{
			pluginPkg.PluginName: &pluginPkg.NetRPCPlugin{Factory: n2kbridge.New},
		},
		Logger: logger,
	})

	log.Println("Plugin exited")
}
