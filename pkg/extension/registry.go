package extension

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Registry owns an ordered, append-only collection of extensions
type Registry struct {
	extensions []Extension
	mu         sync.Mutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		extensions: make([]Extension, 0),
	}
}

// Register appends an extension. Ids are not checked for uniqueness; an
// extension whose id is already taken can never be reached by Invoke.
// A nil extension is ignored.
func (r *Registry) Register(ext Extension) {
	if ext == nil {
		log.Warn().Msg("Ignoring nil extension")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := ext.ID()
	for _, existing := range r.extensions {
		if existing.ID() == id {
			log.Warn().
				Str("extension", id).
				Str("name", ext.Name()).
				Str("shadowed_by", existing.Name()).
				Msg("Extension id already registered, new entry is unreachable by dispatch")
			break
		}
	}

	r.extensions = append(r.extensions, ext)

	log.Info().
		Str("extension", id).
		Str("name", ext.Name()).
		Int("position", len(r.extensions)-1).
		Msg("Extension registered")
}

// LoadDefaults registers the built-in extensions
func (r *Registry) LoadDefaults() {
	r.Register(NewEcho())
}

// List returns the id and name of every extension in registration order
func (r *Registry) List() []Info {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.listLocked()
}

func (r *Registry) listLocked() []Info {
	infos := make([]Info, 0, len(r.extensions))
	for _, ext := range r.extensions {
		infos = append(infos, Info{ID: ext.ID(), Name: ext.Name()})
	}
	return infos
}

// Len returns the number of registered extensions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.extensions)
}

// Lookup returns the first extension registered under id
func (r *Registry) Lookup(id string) (Extension, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ext := range r.extensions {
		if ext.ID() == id {
			return ext, true
		}
	}
	return nil, false
}

// Invoke dispatches req to the first extension whose id matches
// req.ExtensionID and returns its response unchanged. A response with
// Success=false is not an error here. When nothing matches, the error is a
// *NotFoundError carrying the current roster.
//
// The extension runs outside the registry lock.
func (r *Registry) Invoke(ctx context.Context, req Request) (Response, error) {
	r.mu.Lock()
	var target Extension
	for _, ext := range r.extensions {
		if ext.ID() == req.ExtensionID {
			target = ext
			break
		}
	}
	if target == nil {
		err := &NotFoundError{ID: req.ExtensionID, Available: r.listLocked()}
		r.mu.Unlock()

		log.Debug().
			Str("extension", req.ExtensionID).
			Int("available", len(err.Available)).
			Msg("Extension not found")
		return Response{}, err
	}
	r.mu.Unlock()

	log.Debug().Str("extension", req.ExtensionID).Msg("Invoking extension")

	return target.Invoke(ctx, req), nil
}
