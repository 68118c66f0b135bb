// Package commands is the host-facing command layer. Commands are named
// operations with typed parameters that an automated caller can discover and
// execute synchronously.
//
// Invariants:
// - Command names are unique within an Executor.
// - Parameters are schema-validated before the handler runs.
// - Execute never returns an error value; failures are described by Result.
//
// Usage:
//
//	exec := commands.New()
//	_ = commands.RegisterExtensionCommands(exec, registry)
//	res := exec.Execute(ctx, commands.ExtensionInvoke, map[string]interface{}{
//		"prompt": "hello", "extension_id": "mock_echo",
//	})
package commands
