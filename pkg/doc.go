// Package pkg provides the libraries behind bumper, an npm dependency
// version checker.
//
// # Overview
//
// Bumper reads the dependencies and devDependencies of a package.json, asks
// the npm registry for the latest version of each entry and reports (or
// writes) the ones that are behind. The pkg directory is organized as:
//
//  1. [version] - declared version strings: optional range prefix + numeric part
//  2. [deps] - concurrent latest-version checks and report formatting
//  3. [manifest] - order-preserving package.json reading and patching
//  4. [integrations] - registry HTTP client and the npm registry
//  5. [cache] - response cache backends (file, Redis, MongoDB)
//  6. [pipeline] - orchestration shared by the CLI and the HTTP API
//  7. [config], [errors], [observability], [buildinfo] - ambient support
//
// # Architecture
//
//	package.json
//	     ↓
//	[manifest] DeclaredSections
//	     ↓
//	[pipeline] Runner.Check ── [deps] Checker ── [integrations/npm] ── [cache]
//	     ↓
//	[deps] Render (report)  /  [manifest] Apply + Save (--write)
//
// # Quick Start
//
//	doc, _ := manifest.Load("package.json")
//	decl, _ := manifest.DeclaredSections(doc)
//
//	runner, _ := pipeline.New(ctx, config.Default(), nil)
//	defer runner.Close()
//
//	result, _ := runner.Check(ctx, decl, pipeline.Options{})
//	for _, s := range result.Successful() {
//	    fmt.Print(deps.Render(s))
//	}
//	if _, err := runner.Apply(ctx, doc, result); err == nil {
//	    doc.Save("package.json")
//	}
//
// [version]: https://pkg.go.dev/github.com/matzehuels/bumper/pkg/version
// [deps]: https://pkg.go.dev/github.com/matzehuels/bumper/pkg/deps
// [manifest]: https://pkg.go.dev/github.com/matzehuels/bumper/pkg/manifest
// [integrations]: https://pkg.go.dev/github.com/matzehuels/bumper/pkg/integrations
// [cache]: https://pkg.go.dev/github.com/matzehuels/bumper/pkg/cache
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/bumper/pkg/pipeline
// [config]: https://pkg.go.dev/github.com/matzehuels/bumper/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/bumper/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/bumper/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/bumper/pkg/buildinfo
package pkg
