package extraction

import "context"

// Backend is the capability interface implemented by every extraction
// strategy. Run either returns a result or raises a typed *BackendError
// the orchestrator classifies as transient or permanent. Implementations
// must treat the buffer as read-only and must honor ctx cancellation.
type Backend interface {
	Method() Method
	Run(ctx context.Context, buf *DocumentBuffer, filename string) (*BackendResult, error)
}
