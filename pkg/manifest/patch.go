package manifest

import (
	"encoding/json"

	"github.com/matzehuels/bumper/pkg/deps"
	"github.com/matzehuels/bumper/pkg/version"
)

// PatchedSections lists the sections Apply rewrites, in order.
var PatchedSections = []string{
	deps.SectionDependencies,
	deps.SectionDevDependencies,
	deps.SectionOverrides,
}

// Apply writes the latest versions from sets into doc and returns how many
// values changed.
//
// dependencies and devDependencies are each patched with the change set
// named after them, so a mapping that failed or was never checked keeps its
// values. overrides is patched with the changes of every set. A change
// applies to a member with the same name whose current value is a
// resolvable version string; the member's own prefix is kept. If a present
// section is not an object, Apply returns a MALFORMED_MANIFEST error and
// doc is left unchanged.
func Apply(doc *Document, sets ...deps.ChangeSet) (int, error) {
	latest := map[string]map[string]string{deps.SectionOverrides: {}}
	for _, cs := range sets {
		own := latest[cs.Section]
		if own == nil {
			own = make(map[string]string)
			latest[cs.Section] = own
		}
		for _, c := range cs.Changes {
			own[c.Name] = c.Latest
			latest[deps.SectionOverrides][c.Name] = c.Latest
		}
	}

	objs := make(map[string]*object, len(PatchedSections))
	for _, name := range PatchedSections {
		obj, ok, err := section(doc, name)
		if err != nil {
			return 0, err
		}
		if ok && len(latest[name]) > 0 {
			objs[name] = obj
		}
	}

	updated := make(map[string]json.RawMessage)
	total := 0
	for _, name := range PatchedSections {
		obj, ok := objs[name]
		if !ok {
			continue
		}
		n, err := patchObject(obj, latest[name])
		if err != nil {
			return 0, err
		}
		if n == 0 {
			continue
		}
		raw, err := obj.marshal()
		if err != nil {
			return 0, err
		}
		updated[name] = raw
		total += n
	}

	for name, raw := range updated {
		doc.root.set(name, raw)
	}
	return total, nil
}

func patchObject(obj *object, latest map[string]string) (int, error) {
	n := 0
	for _, key := range obj.keys {
		target, ok := latest[key]
		if !ok {
			continue
		}
		var current string
		if json.Unmarshal(obj.values[key], &current) != nil {
			continue
		}
		spec, err := version.Parse(current)
		if err != nil || !spec.Resolvable() {
			continue
		}
		next := spec.With(target).String()
		if next == current {
			continue
		}
		raw, err := encodeString(next)
		if err != nil {
			return 0, err
		}
		obj.values[key] = raw
		n++
	}
	return n, nil
}
