package rpc

import (
	"context"
	"sort"
	"sync"
)

// Dispatcher executes a named procedure.
type Dispatcher interface {
	Execute(ctx context.Context, method string, params []any) (any, error)
}

// Handler implements a single procedure of the table.
type Handler func(ctx context.Context, params []any) (any, error)

// Table maps procedure names to handlers.
type Table struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewTable() *Table {
	return &Table{
		handlers: make(map[string]Handler),
	}
}

// Register adds or replaces the handler for method.
func (t *Table) Register(method string, handler Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.handlers[method] = handler
}

func (t *Table) Methods() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	methods := make([]string, 0, len(t.handlers))
	for method := range t.handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)

	return methods
}

func (t *Table) Execute(ctx context.Context, method string, params []any) (any, error) {
	t.mu.RLock()
	handler, exists := t.handlers[method]
	t.mu.RUnlock()

	if !exists {
		return nil, &Error{Code: CodeMethodNotFound, Message: "Method not found"}
	}

	return handler(ctx, params)
}
