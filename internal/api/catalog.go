package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"navplug.szuro.net/internal/plugin"
)

type pluginCatalog interface {
	ListPlugins() []plugin.Available
}

// CatalogHandler lists the plugins the host can instantiate, whether or
// not the configuration uses them.
type CatalogHandler struct {
	catalog pluginCatalog
}

func NewCatalogHandler(c pluginCatalog) *CatalogHandler {
	return &CatalogHandler{catalog: c}
}

func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/plugins/available", h.List)
}

func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"available": h.catalog.ListPlugins()})
}
