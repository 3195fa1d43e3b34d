// Package deps checks declared dependency versions against a registry.
//
// # Overview
//
// A manifest declares each dependency with a version such as "^1.0.0".
// [Checker.Check] looks every resolvable entry up on a registry through a
// [Fetcher] and returns a [ChangeSet] holding the entries whose latest
// published version differs from the declared one:
//
//	checker := deps.NewChecker("npm", npm.NewClient(backend, cache.DefaultTTL))
//	cs, err := checker.Check(ctx, map[string]string{"left-pad": "^1.0.0"}, deps.Options{
//	    Section:     deps.SectionDependencies,
//	    Concurrency: deps.DefaultConcurrency,
//	})
//	fmt.Print(deps.Render(cs))
//	// left-pad: ^1.0.0 => ^1.3.0
//
// # Concurrency
//
// Each call runs exactly Options.Concurrency workers sharing one queue of
// lookups. Workers pop under a mutex and never hold it across a network call.
// Each worker collects its own changes; they are merged and sorted by name
// once every worker has returned, so the result does not depend on which
// worker handled which package.
//
// # Failures
//
// By default the first failed lookup cancels the run and Check returns a
// FETCH_FAILED error wrapping the registry error, with no partial result.
// With Options.KeepGoing set, failed lookups are collected in
// ChangeSet.Failures and the remaining lookups still run.
//
// # Skipped Entries
//
// Entries whose version does not start with a digit after the optional
// prefix ("workspace:*", "file:../lib", git URLs, empty strings) are never
// looked up and never appear in the result.
package deps
