package plugin

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/rpc"
	"sync"

	"github.com/hashicorp/go-plugin"
	"navplug.szuro.net/internal/logger"
	"navplug.szuro.net/pkg/signalk"
)

// Handshake is the shared configuration between the host and plugin
// executables. It must match exactly on both sides.
var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "NAVPLUG_PLUGIN",
	MagicCookieValue: "signalk_event_pipeline",
}

// PluginName is the key under which executables serve their plugin.
const PluginName = "pipeline"

// NetRPCPlugin is the go-plugin wrapper for event-pipeline plugins.
// Host callbacks travel back to the host over a MuxBroker connection
// opened on every Start.
type NetRPCPlugin struct {
	// Factory builds the plugin inside the plugin process.
	Factory Factory
}

func (p *NetRPCPlugin) Server(b *plugin.MuxBroker) (interface{}, error) {
	return &RPCServer{broker: b, factory: p.Factory}, nil
}

func (p *NetRPCPlugin) Client(b *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &RPCClient{broker: b, client: c}, nil
}

type StartArgs struct {
	HostID uint32
	Config []byte
}

type PutArgs struct {
	Context string
	Path    string
	Value   []byte
}

type EndpointArgs struct {
	Handler string
	Request signalk.HTTPRequest
}

type EmitArgs struct {
	Type string
	Data []byte
}

type RegisterPutArgs struct {
	Context string
	Path    string
}

// RPCClient is the host side view of a plugin running in another process.
// Bind must be called before Start.
type RPCClient struct {
	broker *plugin.MuxBroker
	client *rpc.Client
	host   Host
}

var _ Plugin = (*RPCClient)(nil)

// Bind sets the capabilities served to the plugin process on Start.
func (c *RPCClient) Bind(host Host) {
	c.host = host
}

func (c *RPCClient) call(method string, args, reply any) error {
	err := c.client.Call("Plugin."+method, args, reply)
	if err != nil {
		logger.Error("Plugin RPC failed", slog.String("method", method), slog.Any("error", err))
	}
	return err
}

func (c *RPCClient) Info() (info PluginInfo) {
	c.call("Info", new(interface{}), &info)
	return
}

func (c *RPCClient) Schema() (schema string) {
	c.call("Schema", new(interface{}), &schema)
	return
}

func (c *RPCClient) Start(config []byte) int {
	if c.host == nil {
		logger.Error("Plugin started without host binding")
		return StatusConfigError
	}
	id := c.broker.NextId()
	go c.broker.AcceptAndServe(id, &HostRPCServer{Impl: c.host})

	var status int
	if err := c.call("Start", &StartArgs{HostID: id, Config: config}, &status); err != nil {
		return StatusConfigError
	}
	return status
}

func (c *RPCClient) Stop() int {
	var status int
	c.call("Stop", new(interface{}), &status)
	return status
}

func (c *RPCClient) HandlePut(context, path string, value []byte) signalk.PutResponse {
	var resp signalk.PutResponse
	if err := c.call("HandlePut", &PutArgs{Context: context, Path: path, Value: value}, &resp); err != nil {
		return signalk.PutFailed(http.StatusBadGateway, err.Error())
	}
	return resp
}

func (c *RPCClient) OnEvent(event []byte) {
	var ok bool
	c.call("OnEvent", event, &ok)
}

func (c *RPCClient) Endpoints() (endpoints []signalk.Endpoint) {
	c.call("Endpoints", new(interface{}), &endpoints)
	return
}

func (c *RPCClient) ServeEndpoint(handler string, req signalk.HTTPRequest) signalk.HTTPResponse {
	var resp signalk.HTTPResponse
	if err := c.call("ServeEndpoint", &EndpointArgs{Handler: handler, Request: req}, &resp); err != nil {
		return signalk.ErrorResponse(http.StatusBadGateway, err.Error())
	}
	return resp
}

// RPCServer runs inside the plugin process and drives the real plugin.
type RPCServer struct {
	broker  *plugin.MuxBroker
	factory Factory

	once sync.Once
	host *hostRPCClient
	impl Plugin
}

func (s *RPCServer) instance() Plugin {
	s.once.Do(func() {
		s.host = &hostRPCClient{}
		s.impl = s.factory(s.host)
	})
	return s.impl
}

func (s *RPCServer) Info(args interface{}, resp *PluginInfo) error {
	*resp = s.instance().Info()
	return nil
}

func (s *RPCServer) Schema(args interface{}, resp *string) error {
	*resp = s.instance().Schema()
	return nil
}

func (s *RPCServer) Start(args StartArgs, resp *int) error {
	p := s.instance()
	conn, err := s.broker.Dial(args.HostID)
	if err != nil {
		return fmt.Errorf("failed to dial host: %w", err)
	}
	s.host.bind(rpc.NewClient(conn))
	*resp = p.Start(args.Config)
	return nil
}

func (s *RPCServer) Stop(args interface{}, resp *int) error {
	*resp = s.instance().Stop()
	return nil
}

func (s *RPCServer) HandlePut(args PutArgs, resp *signalk.PutResponse) error {
	*resp = s.instance().HandlePut(args.Context, args.Path, args.Value)
	return nil
}

func (s *RPCServer) OnEvent(event []byte, resp *bool) error {
	s.instance().OnEvent(event)
	*resp = true
	return nil
}

func (s *RPCServer) Endpoints(args interface{}, resp *[]signalk.Endpoint) error {
	*resp = s.instance().Endpoints()
	return nil
}

func (s *RPCServer) ServeEndpoint(args EndpointArgs, resp *signalk.HTTPResponse) error {
	*resp = s.instance().ServeEndpoint(args.Handler, args.Request)
	return nil
}

// HostRPCServer exposes host capabilities to a plugin process.
type HostRPCServer struct {
	Impl Host
}

func (s *HostRPCServer) Debug(msg string, resp *bool) error {
	s.Impl.Debug(msg)
	*resp = true
	return nil
}

func (s *HostRPCServer) SetStatus(msg string, resp *bool) error {
	s.Impl.SetStatus(msg)
	*resp = true
	return nil
}

func (s *HostRPCServer) SetError(msg string, resp *bool) error {
	s.Impl.SetError(msg)
	*resp = true
	return nil
}

func (s *HostRPCServer) HandleMessage(delta []byte, resp *bool) error {
	d, err := signalk.ParseDelta(delta)
	if err != nil {
		*resp = false
		return nil
	}
	*resp = s.Impl.HandleMessage(d)
	return nil
}

func (s *HostRPCServer) EmitEvent(args EmitArgs, resp *bool) error {
	*resp = s.Impl.EmitEvent(args.Type, args.Data)
	return nil
}

func (s *HostRPCServer) SubscribeEvents(eventTypes []string, resp *bool) error {
	*resp = s.Impl.SubscribeEvents(eventTypes)
	return nil
}

func (s *HostRPCServer) RegisterPutHandler(args RegisterPutArgs, resp *bool) error {
	*resp = s.Impl.RegisterPutHandler(args.Context, args.Path)
	return nil
}

// hostRPCClient is the Host implementation handed to plugins running out of
// process. Calls made before Start has connected to the host are dropped.
type hostRPCClient struct {
	mu     sync.RWMutex
	client *rpc.Client
}

func (h *hostRPCClient) bind(client *rpc.Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.client != nil {
		h.client.Close()
	}
	h.client = client
}

func (h *hostRPCClient) call(method string, args any) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.client == nil {
		return false
	}
	var ok bool
	if err := h.client.Call("Plugin."+method, args, &ok); err != nil {
		logger.Warn("Host RPC failed", slog.String("method", method), slog.Any("error", err))
		return false
	}
	return ok
}

func (h *hostRPCClient) Debug(msg string) {
	h.call("Debug", msg)
}

func (h *hostRPCClient) SetStatus(msg string) {
	h.call("SetStatus", msg)
}

func (h *hostRPCClient) SetError(msg string) {
	h.call("SetError", msg)
}

func (h *hostRPCClient) HandleMessage(delta signalk.Delta) bool {
	raw, err := json.Marshal(delta)
	if err != nil {
		return false
	}
	return h.call("HandleMessage", raw)
}

func (h *hostRPCClient) EmitEvent(eventType string, data []byte) bool {
	return h.call("EmitEvent", &EmitArgs{Type: eventType, Data: data})
}

func (h *hostRPCClient) SubscribeEvents(eventTypes []string) bool {
	return h.call("SubscribeEvents", eventTypes)
}

func (h *hostRPCClient) RegisterPutHandler(context, path string) bool {
	return h.call("RegisterPutHandler", &RegisterPutArgs{Context: context, Path: path})
}
