package cliarg

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func promptCli(input string) (*Cli, *bytes.Buffer) {
	c := New()
	c.SetMaxWidth(80)
	out := &bytes.Buffer{}
	c.Streams(strings.NewReader(input), out, &bytes.Buffer{})
	return c, out
}

func TestConfirmOpt_AnswerYes(t *testing.T) {
	c, out := promptCli("y\n")
	yes := c.ConfirmOpt()

	if err := c.Parse([]string{"prog"}); err != nil {
		t.Fatalf("parse error = %v", err)
	}
	if !yes.Value() {
		t.Fatal("yes = false")
	}
	if out.String() != "Are you sure? [y/N]: " {
		t.Fatalf("prompt = %q", out.String())
	}
}

func TestConfirmOpt_AnswerNo(t *testing.T) {
	c, _ := promptCli("n\n")
	c.ConfirmOpt()

	err := c.Parse([]string{"prog"})
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("err = %v", err)
	}
	if e.Code != ExitOk {
		t.Fatalf("code = %d", e.Code)
	}
}

func TestConfirmOpt_EmptyAnswerMeansNo(t *testing.T) {
	c, _ := promptCli("\n")
	c.ConfirmOpt()

	err := c.Parse([]string{"prog"})
	var e *Error
	if !errors.As(err, &e) || e.Code != ExitOk {
		t.Fatalf("err = %v", err)
	}
}

func TestConfirmOpt_FlagSkipsPrompt(t *testing.T) {
	c, out := promptCli("")
	yes := c.ConfirmOpt()

	if err := c.Parse([]string{"prog", "-y"}); err != nil {
		t.Fatalf("parse error = %v", err)
	}
	if !yes.Value() {
		t.Fatal("yes = false")
	}
	if out.Len() != 0 {
		t.Fatalf("unexpected prompt output %q", out.String())
	}
}

func TestPasswordOpt_Confirmed(t *testing.T) {
	c, out := promptCli("secret\nsecret\n")
	pw := c.PasswordOpt(true)

	if err := c.Parse([]string{"prog"}); err != nil {
		t.Fatalf("parse error = %v", err)
	}
	if pw.Value() != "secret" {
		t.Fatalf("password = %q", pw.Value())
	}
	if out.String() != "Password: Enter again to confirm: " {
		t.Fatalf("prompts = %q", out.String())
	}
}

func TestPasswordOpt_Mismatch(t *testing.T) {
	c, _ := promptCli("secret\ntypo\n")
	c.PasswordOpt(true)

	err := c.Parse([]string{"prog"})
	wantUsageErr(t, err, "Confirm failed, entries not the same.")
}

func TestPasswordOpt_GivenOnCommandLine(t *testing.T) {
	c, out := promptCli("")
	pw := c.PasswordOpt(true)

	if err := c.Parse([]string{"prog", "--password=hunter2"}); err != nil {
		t.Fatalf("parse error = %v", err)
	}
	if pw.Value() != "hunter2" {
		t.Fatalf("password = %q", pw.Value())
	}
	if out.Len() != 0 {
		t.Fatalf("unexpected prompt output %q", out.String())
	}
}

func TestPrompt_DefaultHint(t *testing.T) {
	c, out := promptCli("Oak\n")
	tree := NewOpt[string](c, "tree", "elm").Prompt("Favorite tree?")

	if err := c.Parse([]string{"prog"}); err != nil {
		t.Fatalf("parse error = %v", err)
	}
	if tree.Value() != "Oak" {
		t.Fatalf("tree = %q", tree.Value())
	}
	if out.String() != "Favorite tree? [elm]: " {
		t.Fatalf("prompt = %q", out.String())
	}
}

func TestPrompt_EmptyAnswerKeepsDefault(t *testing.T) {
	c, _ := promptCli("\n")
	tree := NewOpt[string](c, "tree", "elm").Prompt("Favorite tree?")

	if err := c.Parse([]string{"prog"}); err != nil {
		t.Fatalf("parse error = %v", err)
	}
	if tree.Value() != "elm" {
		t.Fatalf("tree = %q", tree.Value())
	}
}

func TestPrompt_BoolDefaultTrueHint(t *testing.T) {
	c, out := promptCli("\n")
	keep := NewOpt[bool](c, "keep", true).Prompt("Keep going?")

	if err := c.Parse([]string{"prog"}); err != nil {
		t.Fatalf("parse error = %v", err)
	}
	if keep.Value() {
		t.Fatal("empty answer to a yes/no prompt should mean no")
	}
	if out.String() != "Keep going? [Y/n]: " {
		t.Fatalf("prompt = %q", out.String())
	}
}

func TestPrompt_InvalidAnswerFails(t *testing.T) {
	c, _ := promptCli("lots\n")
	NewOpt[int](c, "count", 0).Prompt("How many?")

	err := c.Parse([]string{"prog"})
	wantUsageErr(t, err, "Invalid '--count' value: lots")
}
