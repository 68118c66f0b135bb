// Package extension holds the in-process extension registry and dispatches
// prompts to extensions by id.
//
// Invariants:
// - Registration order is preserved for listing and dispatch.
// - Ids are not required to be unique; the first registered match wins.
// - Extensions are never removed once registered.
// - Extension-level failure is a Response with Success=false, not an error.
//
// Usage:
//
//	reg := extension.NewRegistry()
//	reg.LoadDefaults()
//	resp, err := reg.Invoke(ctx, extension.Request{Prompt: "hi", ExtensionID: extension.EchoID})
package extension
