package config

// Store is a mapping of string keys to arbitrary values.
type Store interface {
	// Get returns the value stored under key, or def when the key is absent.
	Get(key string, def any) any
	// Set stores value under key and returns the store for chaining.
	Set(key string, value any) Store
	// Has reports whether key is present, even when its value is nil.
	Has(key string) bool
	// Remove deletes key and returns the value it held, or nil.
	Remove(key string) any
	// All returns a copy of every key/value pair.
	All() map[string]any
}

// Configuration is the default Store. Keys keep their insertion order.
type Configuration struct {
	keys []string
	data map[string]any
}

var _ Store = (*Configuration)(nil)

// NewConfiguration creates a Configuration holding a copy of data.
// Keys from a Go map have no order of their own, so they are inserted sorted.
func NewConfiguration(data map[string]any) *Configuration {
	c := &Configuration{data: make(map[string]any, len(data))}
	for _, k := range sortedKeys(data) {
		c.Set(k, data[k])
	}
	return c
}

// Get returns the value stored under key, or def when the key is absent.
func (c *Configuration) Get(key string, def any) any {
	if v, ok := c.data[key]; ok {
		return v
	}
	return def
}

// Set stores value under key. Overwriting keeps the original position.
func (c *Configuration) Set(key string, value any) Store {
	if c.data == nil {
		c.data = make(map[string]any)
	}
	if _, ok := c.data[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.data[key] = value
	return c
}

// Has reports whether key is present.
func (c *Configuration) Has(key string) bool {
	_, ok := c.data[key]
	return ok
}

// Remove deletes key and returns the value it held.
func (c *Configuration) Remove(key string) any {
	v, ok := c.data[key]
	if !ok {
		return nil
	}
	delete(c.data, key)
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			break
		}
	}
	return v
}

// All returns a copy of every key/value pair.
func (c *Configuration) All() map[string]any {
	out := make(map[string]any, len(c.data))
	for k, v := range c.data {
		out[k] = v
	}
	return out
}

// Keys returns the keys in insertion order.
func (c *Configuration) Keys() []string {
	return append([]string(nil), c.keys...)
}

// Len returns the number of keys.
func (c *Configuration) Len() int {
	return len(c.keys)
}

// Range calls fn for each pair in insertion order until fn returns false.
func (c *Configuration) Range(fn func(key string, value any) bool) {
	for _, k := range c.Keys() {
		v, ok := c.data[k]
		if !ok {
			continue
		}
		if !fn(k, v) {
			return
		}
	}
}
