// Package manifest reads and rewrites package.json documents.
//
// # Overview
//
// A [Document] keeps the members of a package.json in their original order
// and stores every value as raw JSON, so a load/save round trip only touches
// what was explicitly changed. The original indentation and trailing newline
// are detected on load and reused when the document is written back.
//
//	doc, err := manifest.Load("package.json")
//	decl, err := manifest.DeclaredSections(doc)
//	// decl.Dependencies["left-pad"] == "^1.0.0"
//
// # Patching
//
// [Apply] writes the latest versions from one or more change sets into the
// dependencies, devDependencies and overrides sections. Each entry keeps its
// own range prefix, so "^1.0.0" becomes "^1.3.0". Values that are not plain
// versions ("workspace:*", git URLs, nested override objects) are left
// alone. Applying the same change set twice changes nothing the second time.
package manifest
