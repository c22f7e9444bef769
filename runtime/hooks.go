package runtime

import (
	"context"
	"fmt"
)

// Hook is a lifecycle callback that runs during runtime startup or shutdown.
type Hook func(ctx context.Context) error

// OnStart registers a hook that runs after the diagnostics server is up but
// before services are initialized.
func (r *Runtime[C]) OnStart(hooks ...Hook) {
	r.onStart = append(r.onStart, hooks...)
}

// OnReady registers a hook that runs after the runtime passes its ready
// check and is about to begin work.
func (r *Runtime[C]) OnReady(hooks ...Hook) {
	r.onReady = append(r.onReady, hooks...)
}

// OnStop registers a hook that runs during graceful shutdown before services
// are disposed. Use this for cleanup like draining in-flight work.
func (r *Runtime[C]) OnStop(hooks ...Hook) {
	r.onStop = append(r.onStop, hooks...)
}

// runHooks executes hooks sequentially, returning the first error.
func runHooks(ctx context.Context, hooks []Hook) error {
	for i, h := range hooks {
		if err := h(ctx); err != nil {
			return fmt.Errorf("hook %d failed: %w", i, err)
		}
	}
	return nil
}
