// Package version splits declared dependency versions into a range prefix
// and a numeric part.
//
// # Overview
//
// Manifests such as package.json declare versions like "^1.2.3", "~0.4.0" or
// "2.0.0". bumper only understands these simple pinned or prefixed forms:
// the first character, when it is not a digit, is treated as the range
// prefix and everything after it as the numeric version.
//
//	spec, _ := version.Parse("^1.2.3")
//	spec.Prefix   // '^'
//	spec.Numeric  // "1.2.3"
//	spec.String() // "^1.2.3"
//
// # Resolvable Versions
//
// Only specs whose numeric part starts with a digit are looked up on the
// registry. References like "workspace:*", "file:../lib" or git URLs parse
// without error but are not [Spec.Resolvable]:
//
//	spec, _ := version.Parse("workspace:*")
//	spec.Resolvable() // false
//
// # Updating
//
// [Spec.With] keeps the prefix and swaps the numeric part, so "^1.0.0"
// updated to "1.3.0" becomes "^1.3.0". Range expressions such as
// ">=1.0 <2.0" are not interpreted.
package version
