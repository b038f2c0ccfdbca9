// Package host runs plugin instances: it routes server events to their
// subscribers, collects the deltas and events they emit, dispatches PUT
// requests and publishes periodic server statistics.
package host

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"navplug.szuro.net/internal/config"
	"navplug.szuro.net/internal/eventbuf"
	"navplug.szuro.net/internal/logger"
	"navplug.szuro.net/internal/observer"
	"navplug.szuro.net/pkg/plugin"
	"navplug.szuro.net/pkg/signalk"
)

// ClientCounter reports connected stream clients for server statistics.
type ClientCounter interface {
	ClientCount() int
}

type Server struct {
	conf      config.NavConf
	router    *Router
	buffer    *eventbuf.Buffer
	puts      *PutRegistry
	observers []observer.Observer

	mu        sync.RWMutex
	instances map[string]*Instance
	order     []string

	deltas  atomic.Int64
	started time.Time
}

func NewServer(conf config.NavConf, observers []observer.Observer) (*Server, error) {
	buffer, err := eventbuf.Open(conf.StartBuffer)
	if err != nil {
		return nil, err
	}
	s := &Server{
		conf:      conf,
		buffer:    buffer,
		puts:      NewPutRegistry(),
		observers: observers,
		instances: make(map[string]*Instance),
		started:   time.Now(),
	}
	s.router = NewRouter(conf.BufferSize, s.dispatch)
	s.router.Start()
	return s, nil
}

// Add creates an instance from factory. The instance is not started.
func (s *Server) Add(pc config.PluginConf, factory plugin.Factory) (*Instance, error) {
	payload, err := pc.Payload()
	if err != nil {
		return nil, fmt.Errorf("cannot encode configuration of plugin %s: %w", pc.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.instances[pc.ID]; ok {
		return nil, fmt.Errorf("plugin %s already loaded", pc.ID)
	}

	inst := &Instance{
		id:            pc.ID,
		config:        payload,
		server:        s,
		enabled:       pc.IsEnabled(),
		subscriptions: make(map[string]bool),
	}
	inst.plugin = factory(capabilities{inst: inst})
	inst.info = inst.plugin.Info()
	if inst.info.ID == "" {
		inst.info.ID = pc.ID
	}
	s.instances[pc.ID] = inst
	s.order = append(s.order, pc.ID)
	pluginRunning.WithLabelValues(pc.ID).Set(0)
	return inst, nil
}

func (s *Server) Instance(id string) (*Instance, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.instances[id]
	return inst, ok
}

// Instances returns every instance in load order.
func (s *Server) Instances() []*Instance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Instance, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.instances[id])
	}
	return out
}

// StartEnabled starts every enabled instance.
func (s *Server) StartEnabled() {
	for _, inst := range s.Instances() {
		if inst.Status().Enabled {
			inst.Start()
		}
	}
}

// Shutdown stops every running instance, then the router and buffer.
func (s *Server) Shutdown() {
	for _, inst := range s.Instances() {
		inst.Stop()
	}
	s.router.Stop()
	for _, o := range s.observers {
		o.Cleanup()
	}
	if err := s.buffer.Close(); err != nil {
		logger.Error("Failed to close event buffer", slog.Any("error", err))
	}
}

// Publish queues an event from an input, waiting for room in the queue.
func (s *Server) Publish(ctx context.Context, e signalk.Event) error {
	return s.router.PublishWait(ctx, e)
}

func (s *Server) dispatch(e signalk.Event) {
	for _, o := range s.observers {
		o.SaveEvent(e)
	}
	for _, inst := range s.Instances() {
		if inst.id == e.From {
			continue
		}
		inst.deliver(e)
	}
}

func (s *Server) handleDelta(pluginID string, delta signalk.Delta) bool {
	if !delta.Valid() {
		deltasHandled.WithLabelValues(pluginID, resultRejected).Inc()
		return false
	}
	if delta.Context == "" {
		delta.Context = signalk.SelfContext
	}
	s.deltas.Add(1)
	deltasHandled.WithLabelValues(pluginID, resultAccepted).Inc()
	for _, o := range s.observers {
		o.SaveDelta(pluginID, delta)
	}
	return true
}

func (s *Server) emitEvent(pluginID, eventType string, data []byte) bool {
	if eventType == "" || !json.Valid(data) {
		pluginEvents.WithLabelValues(pluginID, resultRejected).Inc()
		return false
	}
	e := signalk.Event{
		Type: signalk.EmittedType(eventType),
		From: pluginID,
		Data: json.RawMessage(data),
	}
	if !s.router.Publish(e) {
		pluginEvents.WithLabelValues(pluginID, resultRejected).Inc()
		return false
	}
	pluginEvents.WithLabelValues(pluginID, resultAccepted).Inc()
	return true
}

// Put dispatches a PUT to the plugin owning context/path.
func (s *Server) Put(context, path string, value []byte) signalk.PutResponse {
	owner, ok := s.puts.Owner(context, path)
	if !ok {
		return signalk.PutFailed(http.StatusNotFound, fmt.Sprintf("No PUT handler for %s", path))
	}
	inst, ok := s.Instance(owner)
	if !ok || !inst.Running() {
		return signalk.PutFailed(http.StatusServiceUnavailable, fmt.Sprintf("Plugin %s is not running", owner))
	}
	return inst.HandlePut(context, path, value)
}
