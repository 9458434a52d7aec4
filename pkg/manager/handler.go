package manager

import (
	"context"
	"fmt"
)

// Props is the free-form configuration handed to every handler of a
// declaration. Drivers decode it into their own typed config.
type Props map[string]any

// Connector establishes a connection and returns its handle.
type Connector interface {
	Connect(ctx context.Context, props Props) (any, error)
}

// Configurer performs post-connect setup (schema, buckets, indexes) on an
// established connection.
type Configurer interface {
	Ensure(ctx context.Context, props Props, conn any) error
}

// Disconnector tears down a connection. conn is the handle currently held by
// the store, or nil when none is registered.
type Disconnector interface {
	Disconnect(ctx context.Context, props Props, conn any) error
}

// ConnectFunc adapts a plain function to Connector.
type ConnectFunc func(ctx context.Context, props Props) (any, error)

func (f ConnectFunc) Connect(ctx context.Context, props Props) (any, error) {
	return f(ctx, props)
}

// EnsureFunc adapts a plain function to Configurer.
type EnsureFunc func(ctx context.Context, props Props, conn any) error

func (f EnsureFunc) Ensure(ctx context.Context, props Props, conn any) error {
	return f(ctx, props, conn)
}

// DisconnectFunc adapts a plain function to Disconnector.
type DisconnectFunc func(ctx context.Context, props Props, conn any) error

func (f DisconnectFunc) Disconnect(ctx context.Context, props Props, conn any) error {
	return f(ctx, props, conn)
}

// asConnector accepts either a Connector or a function with the Connector
// signature.
func asConnector(h any) (Connector, error) {
	switch v := h.(type) {
	case Connector:
		return v, nil
	case func(context.Context, Props) (any, error):
		return ConnectFunc(v), nil
	default:
		return nil, fmt.Errorf("%w: %T is not a connect handler", ErrInvalidHandler, h)
	}
}

func asConfigurer(h any) (Configurer, error) {
	switch v := h.(type) {
	case Configurer:
		return v, nil
	case func(context.Context, Props, any) error:
		return EnsureFunc(v), nil
	default:
		return nil, fmt.Errorf("%w: %T is not an ensure handler", ErrInvalidHandler, h)
	}
}

func asDisconnector(h any) (Disconnector, error) {
	switch v := h.(type) {
	case Disconnector:
		return v, nil
	case func(context.Context, Props, any) error:
		return DisconnectFunc(v), nil
	default:
		return nil, fmt.Errorf("%w: %T is not a disconnect handler", ErrInvalidHandler, h)
	}
}
