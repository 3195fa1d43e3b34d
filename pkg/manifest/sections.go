package manifest

import (
	"encoding/json"

	"github.com/matzehuels/bumper/pkg/deps"
	"github.com/matzehuels/bumper/pkg/errors"
)

// Declared holds the two dependency mappings of a manifest. A section missing
// from the document yields an empty, non-nil map.
type Declared struct {
	Dependencies    map[string]string
	DevDependencies map[string]string
}

// Section returns the mapping for a section name, or nil for unknown names.
func (d Declared) Section(name string) map[string]string {
	switch name {
	case deps.SectionDependencies:
		return d.Dependencies
	case deps.SectionDevDependencies:
		return d.DevDependencies
	}
	return nil
}

// DeclaredSections extracts the dependencies and devDependencies mappings.
// Members whose value is not a string are ignored.
func DeclaredSections(doc *Document) (Declared, error) {
	dependencies, err := stringSection(doc, deps.SectionDependencies)
	if err != nil {
		return Declared{}, err
	}
	devDependencies, err := stringSection(doc, deps.SectionDevDependencies)
	if err != nil {
		return Declared{}, err
	}
	return Declared{Dependencies: dependencies, DevDependencies: devDependencies}, nil
}

func stringSection(doc *Document, name string) (map[string]string, error) {
	out := make(map[string]string)
	obj, ok, err := section(doc, name)
	if err != nil || !ok {
		return out, err
	}
	for _, key := range obj.keys {
		var v string
		if json.Unmarshal(obj.values[key], &v) == nil {
			out[key] = v
		}
	}
	return out, nil
}

// section parses a top-level member as an object. ok is false when the
// member is absent or null.
func section(doc *Document, name string) (obj *object, ok bool, err error) {
	raw, present := doc.root.values[name]
	if !present || string(raw) == "null" {
		return nil, false, nil
	}
	obj, err = parseObject(raw)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeMalformedManifest, err, "%q must be an object", name)
	}
	return obj, true, nil
}
