package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/bumper/pkg/errors"
)

// newRegistry serves dist-tags.latest for known packages and answers 500
// for broken-pkg.
func newRegistry(t *testing.T) *httptest.Server {
	t.Helper()
	latest := map[string]string{"left-pad": "1.3.0", "react": "18.3.1", "typescript": "5.6.3"}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/")
		if name == "broken-pkg" {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		v, ok := latest[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `{"dist-tags":{"latest":%q}}`, v)
	}))
	t.Cleanup(ts.Close)
	return ts
}

// isolate keeps config lookup away from the developer's files.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Chdir(dir)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c := New(io.Discard, log.InfoLevel)
	c.Out = &out
	c.Err = io.Discard
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

const leftPadManifest = "{\n  \"name\": \"demo\",\n  \"dependencies\": {\n    \"left-pad\": \"^1.0.0\"\n  }\n}\n"

func TestCheckWritesUpdates(t *testing.T) {
	dir := isolate(t)
	reg := newRegistry(t)
	path := filepath.Join(dir, "package.json")
	writeFile(t, path, leftPadManifest)

	out, err := execute(t, "check", "--registry", reg.URL, "--no-cache", "-w", path)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(out, "Dependencies:") || !strings.Contains(out, "left-pad: ^1.0.0 => ^1.3.0") {
		t.Errorf("report = %q", out)
	}
	want := strings.Replace(leftPadManifest, "^1.0.0", "^1.3.0", 1)
	if got := readFile(t, path); got != want {
		t.Errorf("manifest =\n%s\nwant\n%s", got, want)
	}
}

func TestCheckWithoutWriteLeavesFile(t *testing.T) {
	dir := isolate(t)
	reg := newRegistry(t)
	writeFile(t, filepath.Join(dir, "package.json"), leftPadManifest)

	// Root command defaults to check on ./package.json.
	out, err := execute(t, "--registry", reg.URL, "--no-cache")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(out, "left-pad: ^1.0.0 => ^1.3.0") {
		t.Errorf("report = %q", out)
	}
	if got := readFile(t, filepath.Join(dir, "package.json")); got != leftPadManifest {
		t.Errorf("manifest modified:\n%s", got)
	}
}

func TestCheckWorkspaceOnly(t *testing.T) {
	dir := isolate(t)
	reg := newRegistry(t)
	manifest := `{"dependencies":{"mylib":"workspace:*"}}`
	writeFile(t, filepath.Join(dir, "package.json"), manifest)

	out, err := execute(t, "--registry", reg.URL, "--no-cache", "-w")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(out, "All up to date") {
		t.Errorf("report = %q", out)
	}
	if got := readFile(t, filepath.Join(dir, "package.json")); got != manifest {
		t.Errorf("manifest modified:\n%s", got)
	}
}

func TestCheckFailedSectionIsNotWritten(t *testing.T) {
	dir := isolate(t)
	reg := newRegistry(t)
	path := filepath.Join(dir, "package.json")
	writeFile(t, path, `{
  "dependencies": {
    "left-pad": "^1.0.0"
  },
  "devDependencies": {
    "broken-pkg": "^0.1.0",
    "typescript": "^5.0.0"
  }
}
`)

	out, err := execute(t, "--registry", reg.URL, "--no-cache", "-w", "-c", "1")
	if !errors.Is(err, errors.ErrCodeFetchFailed) {
		t.Fatalf("err = %v, want FETCH_FAILED", err)
	}
	if !strings.Contains(out, "DevDependencies:") {
		t.Errorf("report = %q", out)
	}

	got := readFile(t, path)
	if !strings.Contains(got, `"left-pad": "^1.3.0"`) {
		t.Errorf("dependencies not written:\n%s", got)
	}
	if !strings.Contains(got, `"typescript": "^5.0.0"`) || !strings.Contains(got, `"broken-pkg": "^0.1.0"`) {
		t.Errorf("failed section was written:\n%s", got)
	}
}

func TestCheckFailedSectionKeepsSharedName(t *testing.T) {
	dir := isolate(t)
	reg := newRegistry(t)
	path := filepath.Join(dir, "package.json")
	writeFile(t, path, `{
  "dependencies": {
    "typescript": "^5.0.0"
  },
  "devDependencies": {
    "broken-pkg": "^0.1.0",
    "typescript": "~5.0.0"
  }
}
`)

	_, err := execute(t, "--registry", reg.URL, "--no-cache", "-w", "-c", "1")
	if !errors.Is(err, errors.ErrCodeFetchFailed) {
		t.Fatalf("err = %v, want FETCH_FAILED", err)
	}

	got := readFile(t, path)
	if !strings.Contains(got, `"typescript": "^5.6.3"`) {
		t.Errorf("dependencies not written:\n%s", got)
	}
	if !strings.Contains(got, `"typescript": "~5.0.0"`) {
		t.Errorf("failed section was written:\n%s", got)
	}
}

func TestCheckOnlyWritesSelectedSection(t *testing.T) {
	dir := isolate(t)
	reg := newRegistry(t)
	path := filepath.Join(dir, "package.json")
	writeFile(t, path, `{
  "dependencies": {
    "react": "^18.0.0"
  },
  "devDependencies": {
    "react": "18.0.0"
  }
}
`)

	if _, err := execute(t, "--registry", reg.URL, "--no-cache", "-w", "--only", "dependencies"); err != nil {
		t.Fatalf("check: %v", err)
	}
	got := readFile(t, path)
	if !strings.Contains(got, `"react": "^18.3.1"`) {
		t.Errorf("dependencies not written:\n%s", got)
	}
	if !strings.Contains(got, `"react": "18.0.0"`) {
		t.Errorf("unchecked section was written:\n%s", got)
	}
}

func TestCheckKeepGoing(t *testing.T) {
	dir := isolate(t)
	reg := newRegistry(t)
	path := filepath.Join(dir, "package.json")
	writeFile(t, path, `{"devDependencies":{"broken-pkg":"^0.1.0","typescript":"^5.0.0"}}`)

	out, err := execute(t, "--registry", reg.URL, "--no-cache", "-w", "--keep-going")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(out, "broken-pkg:") {
		t.Errorf("failure not reported: %q", out)
	}
	if !strings.Contains(readFile(t, path), `"typescript": "^5.6.3"`) {
		t.Errorf("typescript not updated:\n%s", readFile(t, path))
	}
}

func TestCheckOnly(t *testing.T) {
	dir := isolate(t)
	reg := newRegistry(t)
	writeFile(t, filepath.Join(dir, "package.json"), `{"dependencies":{"react":"^18.0.0"},"devDependencies":{"broken-pkg":"1.0.0"}}`)

	out, err := execute(t, "--registry", reg.URL, "--no-cache", "--only", "dependencies")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if strings.Contains(out, "DevDependencies:") {
		t.Errorf("devDependencies checked: %q", out)
	}
}

func TestCheckErrors(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		args     []string
		code     errors.Code
	}{
		{"missing manifest", "", nil, errors.ErrCodeInvalidPath},
		{"malformed manifest", `{"dependencies": [}`, nil, errors.ErrCodeMalformedManifest},
		{"section not an object", `{"dependencies": "x"}`, nil, errors.ErrCodeMalformedManifest},
		{"bad concurrency", `{}`, []string{"-c", "-1"}, errors.ErrCodeInvalidConfig},
		{"zero concurrency", `{"dependencies":{"left-pad":"^1.0.0"}}`, []string{"-c", "0"}, errors.ErrCodeInvalidConfig},
		{"unknown section", `{}`, []string{"--only", "peerDependencies"}, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			if tt.manifest != "" {
				writeFile(t, filepath.Join(dir, "package.json"), tt.manifest)
			}
			_, err := execute(t, append([]string{"--no-cache"}, tt.args...)...)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestConfigFileAndFlagPrecedence(t *testing.T) {
	dir := isolate(t)
	reg := newRegistry(t)
	path := filepath.Join(dir, "package.json")
	cfgPath := filepath.Join(dir, "custom.toml")
	writeFile(t, cfgPath, fmt.Sprintf("write = true\nconcurrency = 2\nregistry = %q\n\n[cache]\nbackend = \"none\"\n", reg.URL))

	writeFile(t, path, leftPadManifest)
	if _, err := execute(t, "--config", cfgPath, "--write=false"); err != nil {
		t.Fatalf("check: %v", err)
	}
	if got := readFile(t, path); got != leftPadManifest {
		t.Errorf("--write=false should override the config file:\n%s", got)
	}

	if _, err := execute(t, "--config", cfgPath); err != nil {
		t.Fatalf("check: %v", err)
	}
	if got := readFile(t, path); !strings.Contains(got, "^1.3.0") {
		t.Errorf("write = true from config not honoured:\n%s", got)
	}
}

func TestConfigFileDiscovered(t *testing.T) {
	dir := isolate(t)
	reg := newRegistry(t)
	writeFile(t, filepath.Join(dir, "bumper.toml"), fmt.Sprintf("registry = %q\n[cache]\nbackend = \"none\"\n", reg.URL))
	writeFile(t, filepath.Join(dir, "package.json"), leftPadManifest)

	out, err := execute(t)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(out, "=> ^1.3.0") {
		t.Errorf("report = %q", out)
	}
}

func TestConfigFileInvalid(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "bumper.toml"), "concurency = 4\n")
	if _, err := execute(t, "cache", "path"); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}
}

func TestCachePathAndClear(t *testing.T) {
	dir := isolate(t)
	cacheDir := filepath.Join(dir, "entries")
	cfgPath := filepath.Join(dir, "bumper.toml")
	writeFile(t, cfgPath, fmt.Sprintf("[cache]\ndir = %q\n", cacheDir))

	out, err := execute(t, "cache", "path")
	if err != nil {
		t.Fatalf("cache path: %v", err)
	}
	if strings.TrimSpace(out) != cacheDir {
		t.Errorf("cache path = %q, want %q", out, cacheDir)
	}

	if err := os.MkdirAll(filepath.Join(cacheDir, "ab"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(cacheDir, "ab", "cdef.json"), "{}")
	if _, err := execute(t, "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cacheDir, "ab", "cdef.json")); !os.IsNotExist(err) {
		t.Errorf("entry survived clear: %v", err)
	}
}
