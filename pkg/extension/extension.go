package extension

import "context"

// Request is a single prompt addressed to an extension
type Request struct {
	Prompt      string `json:"prompt"`
	ExtensionID string `json:"extension_id"`
}

// Response is what an extension returns for a request
type Response struct {
	Success       bool   `json:"success"`
	Content       string `json:"content"`
	ExtensionName string `json:"extension_name"`
}

// Info identifies a registered extension
type Info struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Extension is implemented by every statically registered extension.
//
// Invoke must always return a Response. An extension that cannot serve a
// request reports it with Success=false and an explanation in Content.
type Extension interface {
	// ID returns the token used for dispatch matching
	ID() string

	// Name returns the display name
	Name() string

	// Invoke handles a request
	Invoke(ctx context.Context, req Request) Response
}

// InvokeFunc is the signature wrapped by NewFunc
type InvokeFunc func(ctx context.Context, req Request) Response

type funcExtension struct {
	id   string
	name string
	fn   InvokeFunc
}

// NewFunc wraps fn as an Extension with the given id and display name
func NewFunc(id, name string, fn InvokeFunc) Extension {
	return &funcExtension{id: id, name: name, fn: fn}
}

func (f *funcExtension) ID() string   { return f.id }
func (f *funcExtension) Name() string { return f.name }

func (f *funcExtension) Invoke(ctx context.Context, req Request) Response {
	if f.fn == nil {
		return Response{
			Success:       false,
			Content:       "extension has no handler",
			ExtensionName: f.name,
		}
	}
	return f.fn(ctx, req)
}
