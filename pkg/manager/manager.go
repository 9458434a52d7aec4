// Package manager drives the lifecycle of a declared set of named connections.
//
// A Manager runs three independent passes over its declarations: connect,
// ensure and disconnect. Each pass is sequential and best effort: a failing
// declaration is logged, recorded in the pass Report and skipped, and the
// pass continues with the next one. Successful connects are registered in the
// shared registry.ConnectionStore, successful disconnects remove the entry.
package manager

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/marmos91/connmgr/internal/logger"
	"github.com/marmos91/connmgr/internal/telemetry"
	"github.com/marmos91/connmgr/pkg/metrics"
	"github.com/marmos91/connmgr/pkg/registry"
)

// Manager orchestrates connect, ensure and disconnect for its declarations.
// Passes are serialized: a pass started while another one runs waits for it.
type Manager struct {
	store        *registry.ConnectionStore
	declarations []*Declaration
	catalog      *Catalog
	metrics      metrics.LifecycleMetrics

	runMu sync.Mutex
	ready atomic.Bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithCatalog sets the catalog used to resolve handlers that declarations do
// not set directly.
func WithCatalog(c *Catalog) Option {
	return func(m *Manager) { m.catalog = c }
}

// WithMetrics sets the lifecycle metrics sink. nil disables metrics.
func WithMetrics(lm metrics.LifecycleMetrics) Option {
	return func(m *Manager) { m.metrics = lm }
}

// New builds a Manager over store. Handlers are resolved once, here; a
// declaration whose handler cannot be resolved still gets built and fails
// with ErrHandlerNotFound when the matching phase runs.
//
// New fails only on contract errors: a nil store or a declaration without a
// store or connection name.
func New(store *registry.ConnectionStore, declarations []Declaration, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, ErrNoStore
	}

	m := &Manager{store: store}
	for _, opt := range opts {
		opt(m)
	}
	if m.metrics == nil {
		m.metrics = noopMetrics{}
	}

	m.declarations = make([]*Declaration, 0, len(declarations))
	for i := range declarations {
		d := declarations[i]
		if err := d.validate(); err != nil {
			return nil, fmt.Errorf("%w: declaration #%d: %w", registry.ErrInvalidArgument, i, err)
		}
		d.resolve(m.catalog)
		m.declarations = append(m.declarations, &d)
	}

	return m, nil
}

// Store returns the ConnectionStore the manager writes to.
func (m *Manager) Store() *registry.ConnectionStore {
	return m.store
}

// Declarations returns a copy of the declarations, including the handle of
// the last successful connect.
func (m *Manager) Declarations() []Declaration {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	out := make([]Declaration, len(m.declarations))
	for i, d := range m.declarations {
		out[i] = *d
	}
	return out
}

// Ready reports whether Init has completed.
func (m *Manager) Ready() bool {
	return m.ready.Load()
}

// Init runs the connect pass, then the ensure pass, then onComplete.
//
// Init never returns an error and never panics: failures of the passes and of
// the callback are logged and collected in the returned InitReport. Ready
// reports true once Init returns.
func (m *Manager) Init(ctx context.Context, onComplete func(context.Context) error) (report InitReport) {
	report.RunID = uuid.NewString()
	ctx = logger.WithContext(ctx, logger.NewLogContext(report.RunID))

	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanInit,
		trace.WithAttributes(telemetry.RunID(report.RunID)))
	defer span.End()

	defer m.ready.Store(true)
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v", ErrHandlerPanic, r)
			telemetry.RecordError(ctx, err)
			logger.ErrorCtx(ctx, "Failed Connection Handling", logger.Err(err))
			if report.CallbackErr == nil {
				report.CallbackErr = err
			}
		}
	}()

	report.Connect = m.Connect(ctx)
	report.Ensure = m.Ensure(ctx)

	if onComplete != nil {
		if err := safeCall(func() error { return onComplete(ctx) }); err != nil {
			report.CallbackErr = err
			telemetry.RecordError(ctx, err)
			logger.ErrorCtx(ctx, "Failed Connection Handling", logger.Err(err))
		}
	}

	logger.InfoCtx(ctx, "Connection initialization complete",
		logger.KeySucceeded, report.Connect.Succeeded(),
		logger.KeyFailed, report.Connect.Failed()+report.Ensure.Failed(),
		logger.KeyCount, m.store.Count(),
	)
	return report
}

// Connect invokes the connect handler of every declaration in order and
// registers each returned handle. Failures are logged and skipped.
func (m *Manager) Connect(ctx context.Context) Report {
	return m.runPhase(ctx, PhaseConnect, func(ctx context.Context, d *Declaration) Outcome {
		logger.InfoCtx(ctx, d.Key()+" - Connecting...")

		out := m.invoke(ctx, PhaseConnect, d, d.connectHandlerName(), func(ctx context.Context) error {
			if d.Connector == nil {
				return d.connectErr
			}
			conn, err := d.Connector.Connect(ctx, d.Props)
			if err != nil {
				return err
			}
			if _, err := m.store.AddNamedConnection(d.StoreName, d.ConnectionName, conn); err != nil {
				return err
			}
			d.Connection = conn
			return nil
		})

		if out.Err != nil {
			logger.ErrorCtx(ctx, d.Key()+" - Failed to connect", logger.Err(out.Err))
			return out
		}
		logger.InfoCtx(ctx, d.Key()+" - Connected", logger.HandleType(d.Connection), logger.DurationMs(out.Duration))
		logger.InfoCtx(ctx, "Added NamedConnection to ConnectionManager - "+d.Key())
		m.metrics.SetLiveConnections(d.StoreName, m.store.CountStore(d.StoreName))
		return out
	})
}

// Ensure invokes the ensure handler of every declaration with ShouldEnsure
// set, passing the handle currently registered for it (nil if connect failed).
// Other declarations are reported as skipped.
func (m *Manager) Ensure(ctx context.Context) Report {
	return m.runPhase(ctx, PhaseEnsure, func(ctx context.Context, d *Declaration) Outcome {
		if !d.ShouldEnsure {
			logger.DebugCtx(ctx, d.Key()+" - Ensure skipped")
			m.metrics.ObserveSkipped(PhaseEnsure.String(), d.StoreName)
			return Outcome{StoreName: d.StoreName, ConnectionName: d.ConnectionName, Phase: PhaseEnsure, Skipped: true}
		}

		logger.InfoCtx(ctx, d.Key()+" - Configuring...")

		out := m.invoke(ctx, PhaseEnsure, d, d.ensureHandlerName(), func(ctx context.Context) error {
			if d.Configurer == nil {
				return d.ensureErr
			}
			conn, err := m.store.GetNamedConnection(d.StoreName, d.ConnectionName)
			if err != nil {
				return err
			}
			return d.Configurer.Ensure(ctx, d.Props, conn)
		})

		if out.Err != nil {
			logger.ErrorCtx(ctx, d.Key()+" - Failed to configure", logger.Err(out.Err))
			return out
		}
		logger.InfoCtx(ctx, d.Key()+" - Configured", logger.DurationMs(out.Duration))
		return out
	})
}

// Disconnect invokes the disconnect handler of every declaration in order.
// On success the store entry is removed; on failure the stale entry stays.
func (m *Manager) Disconnect(ctx context.Context) Report {
	return m.runPhase(ctx, PhaseDisconnect, func(ctx context.Context, d *Declaration) Outcome {
		logger.InfoCtx(ctx, d.Key()+" - Disconnecting...")

		out := m.invoke(ctx, PhaseDisconnect, d, d.disconnectHandlerName(), func(ctx context.Context) error {
			if d.Disconnector == nil {
				return d.disconnectErr
			}
			conn, err := m.store.GetNamedConnection(d.StoreName, d.ConnectionName)
			if err != nil {
				return err
			}
			if err := d.Disconnector.Disconnect(ctx, d.Props, conn); err != nil {
				return err
			}
			if _, err := m.store.RemoveNamedConnection(d.StoreName, d.ConnectionName); err != nil {
				return err
			}
			d.Connection = nil
			return nil
		})

		if out.Err != nil {
			logger.ErrorCtx(ctx, d.Key()+" - Failed to disconnect", logger.Err(out.Err))
			return out
		}
		logger.InfoCtx(ctx, "Removed NamedConnection from ConnectionManager - "+d.Key())
		logger.InfoCtx(ctx, d.Key()+" - Disconnected", logger.DurationMs(out.Duration))
		m.metrics.SetLiveConnections(d.StoreName, m.store.CountStore(d.StoreName))
		return out
	})
}

// runPhase applies step to every declaration in order.
func (m *Manager) runPhase(ctx context.Context, phase Phase, step func(context.Context, *Declaration) Outcome) Report {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	lc := logger.FromContext(ctx)
	if lc == nil {
		lc = logger.NewLogContext(uuid.NewString())
	}
	lc = lc.WithPhase(phase.String())

	ctx, span := telemetry.StartPhaseSpan(ctx, phase.String(), len(m.declarations), telemetry.RunID(lc.RunID))
	defer span.End()
	ctx = logger.WithContext(ctx, lc.WithTrace(telemetry.TraceID(ctx), telemetry.SpanID(ctx)))

	start := time.Now()
	report := Report{Phase: phase, Outcomes: make([]Outcome, 0, len(m.declarations))}
	for _, d := range m.declarations {
		dctx := logger.WithContext(ctx, logger.FromContext(ctx).WithConnection(d.StoreName, d.ConnectionName))
		report.Outcomes = append(report.Outcomes, step(dctx, d))
	}
	report.Duration = time.Since(start)

	span.SetAttributes(
		attribute.Int(telemetry.AttrFailed, report.Failed()),
		attribute.Int(telemetry.AttrSkipped, report.Skipped()),
	)
	m.metrics.ObservePhase(phase.String(), report.Duration)

	return report
}

// invoke runs call for one declaration inside a handler span, converting a
// panic into an error, and records the outcome in metrics.
func (m *Manager) invoke(ctx context.Context, phase Phase, d *Declaration, handler string, call func(context.Context) error) Outcome {
	ctx, span := telemetry.StartHandlerSpan(ctx, phase.String(), d.StoreName, d.ConnectionName,
		telemetry.ServicePath(d.servicePath()),
		telemetry.Handler(handler),
	)
	defer span.End()

	if lc := logger.FromContext(ctx); lc != nil {
		ctx = logger.WithContext(ctx, lc.WithTrace(telemetry.TraceID(ctx), telemetry.SpanID(ctx)))
	}

	start := time.Now()
	err := safeCall(func() error { return call(ctx) })
	duration := time.Since(start)

	telemetry.RecordError(ctx, err)
	m.metrics.ObserveHandler(phase.String(), d.StoreName, duration, err)

	return Outcome{
		StoreName:      d.StoreName,
		ConnectionName: d.ConnectionName,
		Phase:          phase,
		Err:            err,
		Duration:       duration,
	}
}

func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return fn()
}

// GetClient returns the handle registered under (storeName, connectionName),
// or nil when there is none.
func (m *Manager) GetClient(storeName, connectionName string) (any, error) {
	return m.store.GetNamedConnection(storeName, connectionName)
}

// GetNamedConnections returns every registered connection.
func (m *Manager) GetNamedConnections() []registry.NamedConnection {
	return m.store.GetNamedConnections()
}

// AddNamedConnection registers a handle outside of the connect pass.
func (m *Manager) AddNamedConnection(storeName, connectionName string, connection any) (any, error) {
	conn, err := m.store.AddNamedConnection(storeName, connectionName, connection)
	if err != nil {
		return nil, err
	}
	logger.Info(fmt.Sprintf("Added NamedConnection to ConnectionManager - %s['%s']", storeName, connectionName))
	m.metrics.SetLiveConnections(storeName, m.store.CountStore(storeName))
	return conn, nil
}

// RemoveNamedConnection removes a handle outside of the disconnect pass. It
// does not call any handler.
func (m *Manager) RemoveNamedConnection(storeName, connectionName string) (*registry.NamedConnection, error) {
	removed, err := m.store.RemoveNamedConnection(storeName, connectionName)
	if err != nil {
		return nil, err
	}
	logger.Info(fmt.Sprintf("Removed NamedConnection from ConnectionManager - %s['%s']", storeName, connectionName))
	m.metrics.SetLiveConnections(storeName, m.store.CountStore(storeName))
	return removed, nil
}

// Client returns the handle under (storeName, connectionName) as a T. ok is
// false when nothing is registered or the handle has another type.
//
// Example usage:
//
//	pool, ok := manager.Client[*pgxpool.Pool](mgr, registry.StorePostgres, "primary")
func Client[T any](m *Manager, storeName, connectionName string) (T, bool) {
	var zero T
	conn, err := m.GetClient(storeName, connectionName)
	if err != nil || conn == nil {
		return zero, false
	}
	v, ok := conn.(T)
	return v, ok
}

type noopMetrics struct{}

func (noopMetrics) ObserveHandler(string, string, time.Duration, error) {}
func (noopMetrics) ObserveSkipped(string, string) {}
func (noopMetrics) ObservePhase(string, time.Duration) {}
func (noopMetrics) SetLiveConnections(string, int) {}
