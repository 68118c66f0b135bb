package extension

import "context"

const (
	// EchoID is the id of the reference echo extension
	EchoID = "mock_echo"
	// EchoName is the display name of the reference echo extension
	EchoName = "Mock Echo Extension"

	echoPrefix = "[Echo] "
)

// Echo returns the prompt with a marker prefix. It carries no real
// capability and exists to validate dispatch end to end.
type Echo struct{}

// NewEcho creates the reference echo extension
func NewEcho() *Echo {
	return &Echo{}
}

// ID returns "mock_echo"
func (e *Echo) ID() string { return EchoID }

// Name returns "Mock Echo Extension"
func (e *Echo) Name() string { return EchoName }

// Invoke always succeeds
func (e *Echo) Invoke(_ context.Context, req Request) Response {
	return Response{
		Success:       true,
		Content:       echoPrefix + req.Prompt,
		ExtensionName: EchoName,
	}
}
