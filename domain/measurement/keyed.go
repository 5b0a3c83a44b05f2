package measurement

// Result is the output of a computation. Population and te scales produce
// an opaque value; node and community scales produce a *Keyed.
type Result = any

// Keyed is an insertion-ordered mapping from entity key to value. A nil
// value stands for null.
type Keyed struct {
	keys   []string
	values map[string]any
}

// NewKeyed creates an empty keyed result.
func NewKeyed() *Keyed {
	return &Keyed{values: make(map[string]any)}
}

// KeyedOf builds a keyed result from values, in the order of keys.
func KeyedOf(keys []string, values map[string]any) *Keyed {
	k := NewKeyed()
	for _, key := range keys {
		k.Set(key, values[key])
	}
	return k
}

// Set stores v under key, appending key on first use.
func (k *Keyed) Set(key string, v any) {
	if _, ok := k.values[key]; !ok {
		k.keys = append(k.keys, key)
	}
	k.values[key] = v
}

// Get returns the value under key and whether the key exists.
func (k *Keyed) Get(key string) (any, bool) {
	if k == nil {
		return nil, false
	}
	v, ok := k.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (k *Keyed) Keys() []string {
	if k == nil {
		return nil
	}
	return append([]string(nil), k.keys...)
}

// Len returns the number of keys.
func (k *Keyed) Len() int {
	if k == nil {
		return 0
	}
	return len(k.keys)
}

// Map returns a plain copy of the mapping.
func (k *Keyed) Map() map[string]any {
	out := make(map[string]any, k.Len())
	for _, key := range k.Keys() {
		out[key] = k.values[key]
	}
	return out
}
