package runtime

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vaultpass/servicekit/decorator"
	"github.com/vaultpass/servicekit/di"
	"github.com/vaultpass/servicekit/diag"
	"github.com/vaultpass/servicekit/eventbus"
	"github.com/vaultpass/servicekit/logger"
	"github.com/vaultpass/servicekit/registry"
	"github.com/vaultpass/servicekit/version"
)

// Runtime is the service runtime façade. The type parameter C is the config
// type; any struct embedding config.RuntimeConfig satisfies Config.
type Runtime[C Config] struct {
	Name       string
	Version    string
	Cfg        C
	Container  *di.Container
	Services   *registry.ServiceRegistry
	Bus        *eventbus.Bus
	Decorators *decorator.Factory
	Logger     *logger.Logger

	diagServer      *diag.Server
	gracefulTimeout time.Duration
	onConfigure     []func(ctx context.Context, rt *Runtime[C]) error

	onStart []Hook
	onReady []Hook
	onStop  []Hook
}

// New creates a runtime from a typed config. It applies defaults, validates
// the config, initializes the logger, and builds the core components.
func New[C Config](cfg C, opts ...Option) (*Runtime[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	base := cfg.GetRuntimeConfig()
	if base.Version == "" {
		base.Version = version.Get().Short()
	}

	rt := &Runtime[C]{
		Name:      base.Name,
		Version:   base.Version,
		Cfg:       cfg,
		Container: di.NewContainer(),
		Services:  registry.NewServiceRegistry(),
		Bus: eventbus.New(eventbus.Config{
			HistoryCapacity: base.EventBus.HistoryCapacity,
			MaxListeners:    base.EventBus.MaxListeners,
		}),
		Decorators:      decorator.NewFactory(),
		gracefulTimeout: 15 * time.Second,
	}
	rt.Services.SetHealthCacheTTL(base.Health.CacheTTL)
	rt.Decorators.SetDefaults(decorator.Defaults{
		Caching: decorator.CachingOptions{
			DefaultTTL: base.Cache.DefaultTTL,
			MaxEntries: base.Cache.MaxEntries,
		},
		Performance: decorator.PerformanceOptions{
			SamplingRate:  base.Performance.SamplingRate,
			SlowThreshold: base.Performance.SlowThreshold,
			TrackMemory:   base.Performance.TrackMemory,
			WindowSize:    base.Performance.WindowSize,
		},
	})

	o := resolveOptions(opts)
	if o.container != nil {
		rt.Container = o.container
	}
	if o.gracefulTimeout != nil {
		rt.gracefulTimeout = *o.gracefulTimeout
	}
	if o.logger != nil {
		rt.Logger = o.logger
	} else {
		logger.Init(base.Logging)
		rt.Logger = logger.GetGlobalLogger().WithComponent("runtime")
	}

	if base.Diag.Enabled {
		rt.diagServer = diag.New(base.Diag, diag.Deps{
			ServiceName: base.Name,
			Version:     base.Version,
			Registry:    rt.Services,
			Bus:         rt.Bus,
			Decorators:  rt.Decorators,
		})
	}
	return rt, nil
}

// OnConfigure registers a callback to run during the configure phase. Use it
// to register services and decorator chains once infrastructure is up.
func (r *Runtime[C]) OnConfigure(fn func(ctx context.Context, rt *Runtime[C]) error) {
	r.onConfigure = append(r.onConfigure, fn)
}

// ReadyCheck verifies every registered service reports healthy.
func (r *Runtime[C]) ReadyCheck(ctx context.Context) error {
	results := r.Services.GetAllServiceHealth()
	var unhealthy []string
	for name, h := range results {
		if h.Status != registry.StatusHealthy {
			detail := name + "=" + string(h.Status)
			if h.Message != "" {
				detail += "(" + h.Message + ")"
			}
			unhealthy = append(unhealthy, detail)
		}
	}
	if len(unhealthy) > 0 {
		return fmt.Errorf("unhealthy services: %v", unhealthy)
	}
	return nil
}

// Run executes the full lifecycle for long-running services: startup, block
// on signal, graceful shutdown.
func (r *Runtime[C]) Run(ctx context.Context) error {
	if err := r.startup(ctx); err != nil {
		return err
	}

	r.Logger.Info("Runtime ready, waiting for shutdown signal")
	r.WaitForSignal(ctx)

	return r.stop()
}

// RunTask executes a finite task with the full runtime lifecycle. Unlike
// Run, it does not block on signals; the task runs with a context that is
// canceled on SIGINT/SIGTERM, and shutdown follows when the task returns.
func (r *Runtime[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	if err := r.startup(ctx); err != nil {
		return err
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			r.Logger.Info("Received signal, canceling task", logger.Fields(
				"signal", sig.String(),
			))
			cancel()
		case <-taskCtx.Done():
		}
	}()

	taskErr := task(taskCtx)

	if stopErr := r.stop(); stopErr != nil {
		if taskErr != nil {
			return taskErr
		}
		return stopErr
	}
	return taskErr
}

// startup performs the common initialization sequence shared by Run and
// RunTask.
func (r *Runtime[C]) startup(ctx context.Context) error {
	start := time.Now()

	r.Logger.Info("Starting runtime", logger.Fields(
		"name", r.Name,
		"version", r.Version,
	))

	if r.diagServer != nil {
		if err := r.diagServer.Start(ctx); err != nil {
			return fmt.Errorf("diagnostics server failed: %w", err)
		}
	}

	if err := runHooks(ctx, r.onStart); err != nil {
		return fmt.Errorf("onStart hook failed: %w", err)
	}

	if err := r.configure(ctx); err != nil {
		return fmt.Errorf("configuration failed: %w", err)
	}

	// Instantiate registered services. The result map carries nil for
	// successes; individual failures do not abort startup, the failed
	// services simply report not_instantiated.
	for name, err := range r.Services.InitializeServices(ctx, r.Container) {
		if err == nil {
			continue
		}
		r.Logger.Warn("Service failed to initialize", logger.Fields(
			logger.FieldService, name,
			logger.FieldError, err.Error(),
		))
	}

	if err := r.ReadyCheck(ctx); err != nil {
		r.Logger.Warn("Ready check reported issues", logger.Fields(
			logger.FieldError, err.Error(),
		))
	}

	if err := runHooks(ctx, r.onReady); err != nil {
		return fmt.Errorf("onReady hook failed: %w", err)
	}

	r.displaySummary(time.Since(start))
	return nil
}

// configure runs registered configuration callbacks.
func (r *Runtime[C]) configure(ctx context.Context) error {
	if len(r.onConfigure) == 0 {
		return nil
	}

	r.Logger.Info("Running configuration callbacks", logger.Fields(
		"count", len(r.onConfigure),
	))

	for _, fn := range r.onConfigure {
		if err := fn(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// WaitForSignal blocks until an OS interrupt/term signal or context
// cancellation.
func (r *Runtime[C]) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		r.Logger.Info("Received shutdown signal", logger.Fields(
			"signal", sig.String(),
		))
		return sig
	case <-ctx.Done():
		r.Logger.Info("Context canceled, shutting down")
		return nil
	}
}

// Shutdown performs graceful shutdown. Use when managing your own lifecycle.
func (r *Runtime[C]) Shutdown(ctx context.Context) error {
	return r.stop()
}

// stop gracefully shuts the runtime down within the graceful timeout.
func (r *Runtime[C]) stop() error {
	r.Logger.Info("Shutting down runtime", logger.Fields(
		"timeout", r.gracefulTimeout.String(),
	))

	ctx, cancel := context.WithTimeout(context.Background(), r.gracefulTimeout)
	defer cancel()

	var shutdownErr error

	if err := runHooks(ctx, r.onStop); err != nil {
		r.Logger.Error("OnStop hook error", logger.Fields(
			logger.FieldError, err.Error(),
		))
		shutdownErr = err
	}

	if r.diagServer != nil {
		if err := r.diagServer.Stop(ctx); err != nil {
			r.Logger.Error("Diagnostics server stop error", logger.Fields(
				logger.FieldError, err.Error(),
			))
			if shutdownErr == nil {
				shutdownErr = err
			}
		}
	}

	r.Services.Dispose()
	r.Bus.RemoveAllListeners()
	r.Container.Dispose()

	r.Logger.Info("Runtime shutdown complete")
	return shutdownErr
}
