package cliarg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestResponseFile_Basic(t *testing.T) {
	dir := t.TempDir()
	rsp := filepath.Join(dir, "args.rsp")
	writeFile(t, rsp, "--name=Joe extra1 extra2\n")

	c, _, _ := newTestCli()
	name := NewOpt[string](c, "name", "")
	rest := NewOptVec[string](c, "[args]")

	if err := c.Parse([]string{"prog", "@" + rsp, "tail"}); err != nil {
		t.Fatalf("parse error = %v", err)
	}
	if name.Value() != "Joe" {
		t.Fatalf("name = %q", name.Value())
	}
	if diff := cmp.Diff([]string{"extra1", "extra2", "tail"}, rest.Values()); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestResponseFile_NestedRelative(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "outer.rsp"), "one @sub/inner.rsp four")
	writeFile(t, filepath.Join(sub, "inner.rsp"), "two three")

	c, _, _ := newTestCli()
	rest := NewOptVec[string](c, "[args]")

	if err := c.Parse([]string{"prog", "@" + filepath.Join(dir, "outer.rsp")}); err != nil {
		t.Fatalf("parse error = %v", err)
	}
	want := []string{"one", "two", "three", "four"}
	if diff := cmp.Diff(want, rest.Values()); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestResponseFile_Recursive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "self.rsp"), "@self.rsp")

	c, _, _ := newTestCli()
	NewOptVec[string](c, "[args]")

	err := c.Parse([]string{"prog", "@" + filepath.Join(dir, "self.rsp")})
	wantUsageErr(t, err, "Recursive response file: self.rsp")
}

func TestResponseFile_Missing(t *testing.T) {
	dir := t.TempDir()
	c, _, _ := newTestCli()

	err := c.Parse([]string{"prog", "@" + filepath.Join(dir, "nope.rsp")})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.HasPrefix(c.ErrMsg(), "Invalid response file: ") {
		t.Fatalf("msg = %q", c.ErrMsg())
	}
}

func TestResponseFile_UTF16(t *testing.T) {
	text := "--name=Jöe"
	raw := []byte{0xff, 0xfe}
	for _, r := range text {
		raw = append(raw, byte(r), byte(r>>8))
	}
	dir := t.TempDir()
	rsp := filepath.Join(dir, "wide.rsp")
	if err := os.WriteFile(rsp, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	c, _, _ := newTestCli()
	name := NewOpt[string](c, "name", "")
	if err := c.Parse([]string{"prog", "@" + rsp}); err != nil {
		t.Fatalf("parse error = %v", err)
	}
	if name.Value() != "Jöe" {
		t.Fatalf("name = %q", name.Value())
	}
}

func TestResponseFile_Disabled(t *testing.T) {
	c, _, _ := newTestCli()
	c.ResponseFiles(false)
	rest := NewOptVec[string](c, "[args]")

	if err := c.Parse([]string{"prog", "@literal"}); err != nil {
		t.Fatalf("parse error = %v", err)
	}
	if diff := cmp.Diff([]string{"@literal"}, rest.Values()); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}
