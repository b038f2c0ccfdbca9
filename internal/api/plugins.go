package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"navplug.szuro.net/internal/host"
	"navplug.szuro.net/pkg/plugin"
	"navplug.szuro.net/pkg/signalk"
)

type pluginHost interface {
	Instances() []*host.Instance
	Instance(id string) (*host.Instance, bool)
	Put(context, path string, value []byte) signalk.PutResponse
}

type PluginHandler struct {
	host pluginHost
}

func NewPluginHandler(h pluginHost) *PluginHandler {
	return &PluginHandler{host: h}
}

func (h *PluginHandler) RegisterRoutes(r chi.Router) {
	r.Get("/plugins", h.List)
	r.Get("/plugins/{id}", h.Get)
	r.Post("/plugins/{id}/start", h.Start)
	r.Post("/plugins/{id}/stop", h.Stop)
	r.HandleFunc("/plugins/{id}/api/*", h.Endpoint)
	r.Put("/signalk/v1/api/vessels/self/*", h.Put)
}

func (h *PluginHandler) List(w http.ResponseWriter, r *http.Request) {
	instances := h.host.Instances()
	statuses := make([]host.Status, 0, len(instances))
	for _, inst := range instances {
		statuses = append(statuses, inst.Status())
	}
	writeJSON(w, http.StatusOK, map[string]any{"plugins": statuses})
}

func (h *PluginHandler) instance(w http.ResponseWriter, r *http.Request) (*host.Instance, bool) {
	inst, ok := h.host.Instance(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "plugin not found")
	}
	return inst, ok
}

func (h *PluginHandler) Get(w http.ResponseWriter, r *http.Request) {
	if inst, ok := h.instance(w, r); ok {
		writeJSON(w, http.StatusOK, inst.Status())
	}
}

func (h *PluginHandler) Start(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}
	if inst.Running() {
		writeError(w, http.StatusConflict, "plugin is already running")
		return
	}
	if rc := inst.Start(); rc != plugin.StatusOK {
		status := inst.Status()
		writeJSON(w, http.StatusBadRequest, status)
		return
	}
	writeJSON(w, http.StatusOK, inst.Status())
}

func (h *PluginHandler) Stop(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}
	if !inst.Running() {
		writeError(w, http.StatusConflict, "plugin is not running")
		return
	}
	inst.Stop()
	writeJSON(w, http.StatusOK, inst.Status())
}

// Endpoint forwards requests under /plugins/{id}/api/ to the plugin.
func (h *PluginHandler) Endpoint(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	req := signalk.HTTPRequest{
		Method: r.Method,
		Path:   "/api/" + chi.URLParam(r, "*"),
	}
	if len(body) > 0 {
		if !json.Valid(body) {
			writeError(w, http.StatusBadRequest, "body must be JSON")
			return
		}
		req.Body = body
	}
	if q := r.URL.Query(); len(q) > 0 {
		req.Query = make(map[string]string, len(q))
		for k := range q {
			req.Query[k] = q.Get(k)
		}
	}

	resp, found := inst.ServeEndpoint(req)
	if !found {
		writeError(w, http.StatusNotFound, "endpoint not found")
		return
	}
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.StatusCode)
	w.Write(resp.Body)
}

// Put handles Signal K PUT requests for the own vessel. URL segments map to
// the dotted Signal K path.
func (h *PluginHandler) Put(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(chi.URLParam(r, "*"), "/")
	if path == "" {
		writeError(w, http.StatusBadRequest, "missing path")
		return
	}
	var req struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Value) == 0 {
		writeError(w, http.StatusBadRequest, "body must be {\"value\": ...}")
		return
	}
	resp := h.host.Put(signalk.SelfContext, strings.ReplaceAll(path, "/", "."), req.Value)
	writeJSON(w, resp.StatusCode, resp)
}
