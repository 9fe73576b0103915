// Package middleware provides composable StateStore wrappers for
// protecting persisted conversation state.
package middleware

import "github.com/zapcampo/convoflow/pkg/ports"

// Middleware allows wrapping a StateStore to add behavior.
type Middleware func(ports.StateStore) ports.StateStore

// Chain applies middlewares right to left, so the first one listed is the
// outermost wrapper.
func Chain(store ports.StateStore, mws ...Middleware) ports.StateStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
