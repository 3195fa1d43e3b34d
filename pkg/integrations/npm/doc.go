// Package npm looks up the latest published versions of packages on the npm
// registry.
//
// # Usage
//
//	client := npm.NewClient(backend, cache.DefaultTTL)
//	latest, err := client.FetchLatest(ctx, "left-pad", false)
//	// latest == "1.3.0"
//
// Mirrors and private proxies are supported with [Client.WithRegistry]:
//
//	client.WithRegistry("http://localhost:4873")
//
// # Version Selection
//
// The client reads the "latest" entry of the package document's dist-tags.
// Prereleases and other tags are ignored.
//
// # Errors
//
// Every failure (transport error, non-2xx status, unreadable body, missing
// dist-tag) is a REGISTRY_ERROR from [github.com/matzehuels/bumper/pkg/errors].
// A 404 also matches [integrations.ErrNotFound] via errors.Is.
package npm
