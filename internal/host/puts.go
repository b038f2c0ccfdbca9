package host

import (
	"sync"
)

// PutRegistry maps a context and path to the plugin handling PUTs on it.
type PutRegistry struct {
	mu     sync.RWMutex
	owners map[string]string
}

func NewPutRegistry() *PutRegistry {
	return &PutRegistry{owners: make(map[string]string)}
}

func putKey(context, path string) string {
	return context + "/" + path
}

// Register claims context/path for pluginID. Claims held by another plugin
// are refused; a plugin may re-register its own.
func (pr *PutRegistry) Register(pluginID, context, path string) bool {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	k := putKey(context, path)
	if owner, ok := pr.owners[k]; ok && owner != pluginID {
		return false
	}
	pr.owners[k] = pluginID
	return true
}

func (pr *PutRegistry) Owner(context, path string) (string, bool) {
	pr.mu.RLock()
	defer pr.mu.RUnlock()
	owner, ok := pr.owners[putKey(context, path)]
	return owner, ok
}

// Release drops every claim held by pluginID.
func (pr *PutRegistry) Release(pluginID string) {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	for k, owner := range pr.owners {
		if owner == pluginID {
			delete(pr.owners, k)
		}
	}
}
