package synthesis

import "context"

/* Synthesizer is the generative backend
 * Complete must honour ctx cancellation; the engine bounds every call
 * with a deadline
 */
type Synthesizer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
