// Package application holds the storefront use cases; subpackages group them
// by bounded context (payment, session, feed).
package application

import "context"

// UseCase is the shape shared by command-style use cases.
type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}
