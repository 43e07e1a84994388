package cache

// Size exposes the entry count to the external tests.
func Size[T any](c *InMemory[T]) int { return c.size() }
