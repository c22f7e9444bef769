// Package runtime orchestrates the service runtime lifecycle.
//
// It wires the dependency injection container, the service registry, the
// event bus, and the decorator factory behind one façade, and drives the
// startup sequence: config validation, logger init, service initialization,
// hooks, readiness, and graceful shutdown on OS signals.
//
// # Quick Start
//
//	var cfg AppConfig
//	if err := config.LoadConfig("vaultpass", &cfg); err != nil {
//	    log.Fatal(err)
//	}
//	rt, err := runtime.New(&cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	rt.OnConfigure(func(ctx context.Context, rt *runtime.Runtime[*AppConfig]) error {
//	    return registerServices(rt)
//	})
//	if err := rt.Run(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
package runtime
