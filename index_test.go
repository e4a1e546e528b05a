package cliarg

import "testing"

func optNameList(c *Cli, o option, kind nameListKind) string {
	var ndx optIndex
	ndx.index(c, "", true)
	return ndx.nameList(o, kind)
}

func TestNameList_BoolWithInverse(t *testing.T) {
	c, _, _ := newTestCli()
	force := NewOpt[bool](c, "f force", false)

	if got := optNameList(c, force, nameAll); got != "-f, --force / --no-force" {
		t.Fatalf("list = %q", got)
	}
}

func TestNameList_NoInverseSuffix(t *testing.T) {
	c, _, _ := newTestCli()
	force := NewOpt[bool](c, "force.", false)

	if got := optNameList(c, force, nameAll); got != "--force" {
		t.Fatalf("list = %q", got)
	}
}

func TestNameList_ValueForms(t *testing.T) {
	c, _, _ := newTestCli()
	color := NewOpt[string](c, "?color", "")
	count := NewOpt[int](c, "n", 0)
	out := NewOpt[string](c, "o out", "").ValueDesc("FILE")

	if got := optNameList(c, color, nameAll); got != "--color[=STRING]" {
		t.Fatalf("color list = %q", got)
	}
	if got := optNameList(c, count, nameAll); got != "-n NUM" {
		t.Fatalf("count list = %q", got)
	}
	if got := optNameList(c, out, nameAll); got != "-o, --out=FILE" {
		t.Fatalf("out list = %q", got)
	}
}

func TestNameList_FlagValuePair(t *testing.T) {
	c, _, _ := newTestCli()
	var fruit string
	apple := NewOptPtr(c, &fruit, "apple", "apple").FlagValue(true)

	if got := optNameList(c, apple, nameAll); got != "--apple / --no-apple" {
		t.Fatalf("list = %q", got)
	}
	if got := optNameList(c, apple, nameEnable); got != "--apple" {
		t.Fatalf("enable list = %q", got)
	}
	if got := optNameList(c, apple, nameDisable); got != "--no-apple" {
		t.Fatalf("disable list = %q", got)
	}
}

func TestDefaultName(t *testing.T) {
	c, _, _ := newTestCli()
	long := NewOpt[bool](c, "v verbose", false)
	short := NewOpt[bool](c, "q", false)
	pos := NewOpt[string](c, "<path>", "")

	var ndx optIndex
	ndx.index(c, "", true)

	if long.defName != "-v" {
		t.Fatalf("defName = %q", long.defName)
	}
	if short.defName != "-q" {
		t.Fatalf("defName = %q", short.defName)
	}
	if pos.defName != "path" {
		t.Fatalf("defName = %q", pos.defName)
	}
}
