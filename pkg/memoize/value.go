package memoize

// Value returns the value held by item as a T. Values saved to an encoding
// store are decoded into T. The second result is false when the value cannot
// be represented as T; generated proxies treat that as a miss. Values from the
// in-process stores are returned as saved, not copied; see StorePool.
func Value[T any](item Item) (T, bool) {
	var zero T

	if ci, ok := item.(*CacheItem); ok && ci.Encoded() {
		var decoded T
		if err := ci.Decode(&decoded); err != nil {
			return zero, false
		}
		return decoded, true
	}

	raw := item.Get()
	if raw == nil {
		// A stored nil is a valid result for pointer, slice, map and interface types
		return zero, true
	}

	v, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return v, true
}
