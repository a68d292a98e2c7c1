package fundec

// Option configures a Coordinator or Worker with optional dependencies.
type Option func(*agentOptions)

// agentOptions holds optional Coordinator and Worker configuration.
type agentOptions struct {
	hooks   *Hooks
	metrics MetricsCollector
	logger  Logger
}

// WithHooks sets lifecycle event hooks.
//
// Hooks run synchronously on the agent's goroutine and must return quickly. A hook
// error is logged and otherwise ignored.
//
// Parameters:
//   - hooks: Hooks structure with callback functions (nil fields are ignored)
//
// Returns:
//   - Option: Functional option for NewCoordinator and NewWorker
//
// Example:
//
//	hooks := &fundec.Hooks{
//	    OnAssignment: func(ctx context.Context, a fundec.Assignment) error {
//	        log.Printf("dispatched %s", a)
//	        return nil
//	    },
//	}
//	coord, err := fundec.NewCoordinator(&cfg, tr, kernel.NewSearch(), fundec.WithHooks(hooks))
func WithHooks(hooks *Hooks) Option {
	return func(o *agentOptions) {
		o.hooks = hooks
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option for NewCoordinator and NewWorker
//
// Example:
//
//	collector := metrics.NewPrometheus(prometheus.DefaultRegisterer, "fundec")
//	coord, err := fundec.NewCoordinator(&cfg, tr, k, fundec.WithMetrics(collector))
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *agentOptions) {
		o.metrics = metrics
	}
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation (compatible with zap.SugaredLogger)
//
// Returns:
//   - Option: Functional option for NewCoordinator and NewWorker
//
// Example:
//
//	coord, err := fundec.NewCoordinator(&cfg, tr, k, fundec.WithLogger(logging.NewSlogDefault()))
func WithLogger(logger Logger) Option {
	return func(o *agentOptions) {
		o.logger = logger
	}
}
