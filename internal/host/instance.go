package host

import (
	"encoding/json"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/exp/slices"
	"navplug.szuro.net/internal/logger"
	"navplug.szuro.net/pkg/plugin"
	"navplug.szuro.net/pkg/signalk"
)

// Status is the externally visible state of a plugin instance.
type Status struct {
	plugin.PluginInfo
	Enabled       bool     `json:"enabled"`
	Running       bool     `json:"running"`
	Status        string   `json:"status,omitempty"`
	Error         string   `json:"error,omitempty"`
	Subscriptions []string `json:"subscriptions"`
}

// Instance is one loaded plugin. calls serialises every callback into the
// plugin; state guards the bookkeeping the router and API read.
type Instance struct {
	id     string
	info   plugin.PluginInfo
	plugin plugin.Plugin
	config []byte
	server *Server

	calls sync.Mutex

	state         sync.RWMutex
	enabled       bool
	running       bool
	starting      bool
	status        string
	lastError     string
	subscribeAll  bool
	subscriptions map[string]bool
}

func (i *Instance) ID() string {
	return i.id
}

// Status returns a snapshot of the instance state.
func (i *Instance) Status() Status {
	i.state.RLock()
	defer i.state.RUnlock()
	subs := make([]string, 0, len(i.subscriptions))
	for t := range i.subscriptions {
		subs = append(subs, t)
	}
	sort.Strings(subs)
	return Status{
		PluginInfo:    i.info,
		Enabled:       i.enabled,
		Running:       i.running,
		Status:        i.status,
		Error:         i.lastError,
		Subscriptions: subs,
	}
}

func (i *Instance) Running() bool {
	i.state.RLock()
	defer i.state.RUnlock()
	return i.running
}

// Start hands the configuration to the plugin and replays the events
// buffered while it was starting. It reports the plugin's return code.
func (i *Instance) Start() int {
	i.calls.Lock()
	defer i.calls.Unlock()

	i.state.Lock()
	if i.running {
		i.state.Unlock()
		return plugin.StatusOK
	}
	i.starting = true
	i.lastError = ""
	i.state.Unlock()

	rc := i.plugin.Start(i.config)

	i.state.Lock()
	i.starting = false
	i.running = rc == plugin.StatusOK
	i.state.Unlock()

	buffered, err := i.server.buffer.Drain(i.id)
	if err != nil {
		logger.Error("Failed to drain start buffer", slog.String("plugin", i.id), slog.Any("error", err))
	}

	if rc != plugin.StatusOK {
		logger.Warn("Plugin failed to start", slog.String("plugin", i.id), slog.Int("code", rc))
		i.server.puts.Release(i.id)
		i.clearSubscriptions()
		return rc
	}

	pluginRunning.WithLabelValues(i.id).Set(1)
	logger.Info("Plugin started", slog.String("plugin", i.id), slog.Int("replayed", len(buffered)))
	for _, e := range buffered {
		i.onEvent(e)
	}
	return rc
}

// Stop stops a running plugin and releases its subscriptions and PUT paths.
func (i *Instance) Stop() int {
	i.calls.Lock()
	defer i.calls.Unlock()

	if !i.Running() {
		return plugin.StatusOK
	}
	rc := i.plugin.Stop()

	i.state.Lock()
	i.running = false
	i.state.Unlock()
	i.clearSubscriptions()
	i.server.puts.Release(i.id)
	pluginRunning.WithLabelValues(i.id).Set(0)
	logger.Info("Plugin stopped", slog.String("plugin", i.id))
	return rc
}

func (i *Instance) clearSubscriptions() {
	i.state.Lock()
	defer i.state.Unlock()
	i.subscribeAll = false
	i.subscriptions = make(map[string]bool)
}

func (i *Instance) subscribed(eventType string) bool {
	if i.subscribeAll {
		return signalk.IsAllowed(eventType)
	}
	return i.subscriptions[eventType]
}

// deliver passes e to the plugin, or buffers it while the plugin starts.
func (i *Instance) deliver(e signalk.Event) {
	i.state.Lock()
	if !i.subscribed(e.Type) {
		i.state.Unlock()
		return
	}
	if i.starting {
		dropped, err := i.server.buffer.Push(i.id, e)
		i.state.Unlock()
		if err != nil {
			logger.Error("Failed to buffer event", slog.String("plugin", i.id), slog.Any("error", err))
		}
		if dropped {
			eventsDropped.WithLabelValues("start_buffer_full").Inc()
		}
		return
	}
	running := i.running
	i.state.Unlock()
	if !running {
		return
	}

	i.calls.Lock()
	defer i.calls.Unlock()
	if i.Running() {
		i.onEvent(e)
	}
}

func (i *Instance) onEvent(e signalk.Event) {
	raw, err := json.Marshal(e)
	if err != nil {
		logger.Error("Failed to encode event", slog.String("plugin", i.id), slog.Any("error", err))
		return
	}
	i.plugin.OnEvent(raw)
	eventsRouted.WithLabelValues(i.id).Inc()
}

// HandlePut forwards a PUT to the plugin.
func (i *Instance) HandlePut(context, path string, value []byte) signalk.PutResponse {
	i.calls.Lock()
	defer i.calls.Unlock()
	return i.plugin.HandlePut(context, path, value)
}

// Endpoints lists the plugin's REST endpoints.
func (i *Instance) Endpoints() []signalk.Endpoint {
	i.calls.Lock()
	defer i.calls.Unlock()
	return i.plugin.Endpoints()
}

// ServeEndpoint runs the plugin handler matching method and path.
func (i *Instance) ServeEndpoint(req signalk.HTTPRequest) (signalk.HTTPResponse, bool) {
	i.calls.Lock()
	defer i.calls.Unlock()
	idx := slices.IndexFunc(i.plugin.Endpoints(), func(ep signalk.Endpoint) bool {
		return ep.Method == req.Method && ep.Path == req.Path
	})
	if idx < 0 {
		return signalk.HTTPResponse{}, false
	}
	return i.plugin.ServeEndpoint(i.plugin.Endpoints()[idx].Handler, req), true
}

// capabilities is the plugin.Host handed to the plugin. Its methods never
// take the calls mutex, so plugins may use them from inside callbacks.
type capabilities struct {
	inst *Instance
}

var _ plugin.Host = capabilities{}

func (c capabilities) Debug(msg string) {
	logger.Debug(msg, slog.String("plugin", c.inst.id))
}

func (c capabilities) SetStatus(msg string) {
	c.inst.state.Lock()
	c.inst.status = msg
	c.inst.state.Unlock()
	logger.Info("Plugin status", slog.String("plugin", c.inst.id), slog.String("status", msg))
}

func (c capabilities) SetError(msg string) {
	c.inst.state.Lock()
	c.inst.lastError = msg
	c.inst.state.Unlock()
	logger.Error("Plugin error", slog.String("plugin", c.inst.id), slog.String("error", msg))
}

func (c capabilities) HandleMessage(delta signalk.Delta) bool {
	return c.inst.server.handleDelta(c.inst.id, delta)
}

func (c capabilities) EmitEvent(eventType string, data []byte) bool {
	return c.inst.server.emitEvent(c.inst.id, eventType, data)
}

// SubscribeEvents drops types plugins may not subscribe to. An empty list
// subscribes to every allowed type.
func (c capabilities) SubscribeEvents(eventTypes []string) bool {
	c.inst.state.Lock()
	defer c.inst.state.Unlock()
	if len(eventTypes) == 0 {
		c.inst.subscribeAll = true
		return true
	}
	added := 0
	for _, t := range eventTypes {
		if !signalk.IsAllowed(t) {
			logger.Warn("Subscription to event type refused", slog.String("plugin", c.inst.id), slog.String("type", t))
			continue
		}
		c.inst.subscriptions[t] = true
		added++
	}
	return added > 0
}

func (c capabilities) RegisterPutHandler(context, path string) bool {
	ok := c.inst.server.puts.Register(c.inst.id, context, path)
	if !ok {
		logger.Warn("PUT path already claimed", slog.String("plugin", c.inst.id), slog.String("path", path))
	}
	return ok
}
