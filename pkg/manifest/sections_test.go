package manifest

import (
	"testing"

	"github.com/matzehuels/bumper/pkg/deps"
	"github.com/matzehuels/bumper/pkg/errors"
)

func TestDeclaredSections(t *testing.T) {
	doc := mustParse(t, `{
  "dependencies": {"left-pad": "^1.0.0", "weird": 5},
  "devDependencies": {"typescript": "5.0.0"}
}`)

	decl, err := DeclaredSections(doc)
	if err != nil {
		t.Fatalf("DeclaredSections: %v", err)
	}
	if len(decl.Dependencies) != 1 || decl.Dependencies["left-pad"] != "^1.0.0" {
		t.Errorf("Dependencies = %v", decl.Dependencies)
	}
	if decl.Section(deps.SectionDevDependencies)["typescript"] != "5.0.0" {
		t.Errorf("DevDependencies = %v", decl.DevDependencies)
	}
	if decl.Section("peerDependencies") != nil {
		t.Error("unknown section should be nil")
	}
}

func TestDeclaredSectionsAbsent(t *testing.T) {
	for _, input := range []string{`{}`, `{"dependencies": null}`} {
		decl, err := DeclaredSections(mustParse(t, input))
		if err != nil {
			t.Fatalf("%s: %v", input, err)
		}
		if decl.Dependencies == nil || len(decl.Dependencies) != 0 {
			t.Errorf("%s: Dependencies = %v, want empty map", input, decl.Dependencies)
		}
		if decl.DevDependencies == nil || len(decl.DevDependencies) != 0 {
			t.Errorf("%s: DevDependencies = %v, want empty map", input, decl.DevDependencies)
		}
	}
}

func TestDeclaredSectionsMalformed(t *testing.T) {
	_, err := DeclaredSections(mustParse(t, `{"dependencies": "left-pad"}`))
	if !errors.Is(err, errors.ErrCodeMalformedManifest) {
		t.Errorf("err = %v, want MALFORMED_MANIFEST", err)
	}
}
