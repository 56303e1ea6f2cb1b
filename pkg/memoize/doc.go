/*
Package memoize is the runtime imported by memoproxy-generated proxies.

A generated proxy holds the original service and a Pool. For every memoized
method it derives a key from the service id, the method name and the argument
values, asks the pool for an Item, and either returns the stored value or calls
the original and saves the result:

	memoKey := memoize.NewKey("calc", "Add")
	memoKey.Add(a)
	memoKey.Add(b)
	memoItem := proxy.pool.GetItem(ctx, memoKey.String())
	if memoItem.IsHit() {
		if memoCached, memoOK := memoize.Value[int](memoItem); memoOK {
			return memoCached
		}
	}
	memoResult := proxy.inner.Add(a, b)
	memoItem.Set(memoResult)
	memoItem.ExpiresAfter(5 * time.Second)
	proxy.pool.Save(ctx, memoItem)
	return memoResult

# Pools

StorePool implements Pool over the bundled backends:

	pool, err := memoize.NewPool(memoize.NewDefaultConfig().WithMaxEntries(10000))

	pool, err := memoize.NewPool(memoize.NewDefaultConfig().WithStoreType(memoize.StoreTypeOtter))

	pool, err := memoize.NewPool(memoize.NewRedisConfig("localhost:6379"))

Backend errors are logged and reported as misses, so a failing cache only
costs the original call. Concurrent lookups of the same key share one backend
read.

Values sent to Redis can be compressed:

	cfg := memoize.NewRedisConfig("localhost:6379").
		WithCompression(compression.NewDefaultConfig().WithAlgorithm(compression.AlgorithmDeflate))

# Container

Generated registration code decorates services held by a Container:

	c := memoize.NewContainer()
	_ = c.Provide("calc", calc.New())
	_ = c.ProvidePool("cache.pool", pool)
	if err := memoized.Register(c); err != nil {
		return err
	}
	svc, err := memoize.Resolve[calc.Calculator](c, "calc")
*/
package memoize
