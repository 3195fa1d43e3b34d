// Package integrations provides HTTP clients for package registry APIs.
//
// # Overview
//
// The [Client] type holds the plumbing every registry client shares: a
// timeout-bound [http.Client], default request headers, response caching
// through [cache.Cache] and HTTP events for [observability]. Registry
// specific code lives in subpackages:
//
//   - [npm]: the npm registry
//
// # Client Pattern
//
//	c := integrations.NewClient(backend, "npm:", cache.DefaultTTL, headers)
//	err := c.Cached(ctx, name, refresh, &v, func() error {
//	    return c.Get(ctx, url, &v)
//	})
//
// # Errors
//
// A 404 response yields [ErrNotFound]; transport failures and every other
// non-2xx status yield [ErrNetwork]. Requests are not retried.
//
// [npm]: github.com/matzehuels/bumper/pkg/integrations/npm
package integrations
