package ports

import "context"

// Messenger is the user-facing status channel of a job, the place where a host
// shows a one-line summary to the operator.
type Messenger interface {
	// AddStatus publishes an informational message.
	AddStatus(ctx context.Context, message string)
	// AddError publishes an error message.
	AddError(ctx context.Context, message string)
}
