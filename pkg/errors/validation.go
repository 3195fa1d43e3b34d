package errors

import (
	"net/url"
	"os"
	"strings"
	"unicode"
)

// ValidatePackageName validates a package name before it is placed into a
// registry URL. It rejects names that could be used for path traversal or
// injection attacks.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters or whitespace
//   - No path traversal sequences (.., //, etc.)
//   - No query or fragment delimiters
//   - Maximum length of 214 characters (the npm limit)
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}

	if len(name) > 214 {
		return New(ErrCodeInvalidPackage, "package name too long (max 214 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidPackage, "package name contains invalid characters: %q", name)
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\\",   // Backslash (Windows path)
		"?",    // Query string
		"#",    // Fragment
		"\x00", // Null byte
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidPackage, "package name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateURL validates a registry URL. It must use http or https and name
// a host.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid URL %q", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	if u.Host == "" {
		return New(ErrCodeInvalidInput, "URL must include a host")
	}

	return nil
}

// ValidatePath checks that path names an existing regular file.
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}
	info, err := os.Stat(path)
	if err != nil {
		return Wrap(ErrCodeInvalidPath, err, "cannot read %s", path)
	}
	if !info.Mode().IsRegular() {
		return New(ErrCodeInvalidPath, "%s is not a regular file", path)
	}
	return nil
}
