package llm

import "strings"

// Registry holds one constructed client per configured model id. Ids are
// kept as written because they also key stored predictions.
type Registry struct {
	clients map[string]Client
	ids     []string
}

func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]Client),
	}
}

func (r *Registry) Register(id string, c Client) {
	if r == nil || c == nil {
		return
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return
	}
	if r.clients == nil {
		r.clients = make(map[string]Client)
	}
	if _, exists := r.clients[id]; !exists {
		r.ids = append(r.ids, id)
	}
	r.clients[id] = c
}

func (r *Registry) Get(id string) (Client, bool) {
	if r == nil || r.clients == nil {
		return nil, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, false
	}
	c, ok := r.clients[id]
	return c, ok
}

// IDs lists registered model ids in registration order.
func (r *Registry) IDs() []string {
	if r == nil || len(r.ids) == 0 {
		return nil
	}
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}
