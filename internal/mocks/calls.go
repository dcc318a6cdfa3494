package mocks

import "sync"

// CallLog records the arguments of each call to a mocked method. It is safe
// for concurrent use.
type CallLog[T any] struct {
	mu   sync.Mutex
	args []T
}

func (c *CallLog[T]) record(arg T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.args = append(c.args, arg)
}

// Count returns how many calls were recorded.
func (c *CallLog[T]) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.args)
}

// Args returns a copy of the recorded arguments in call order.
func (c *CallLog[T]) Args() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.args))
	copy(out, c.args)
	return out
}
