package argv

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSplitGNU_Basic(t *testing.T) {
	got := SplitGNU(`one 'two three' four`)
	want := []string{"one", "two three", "four"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitGNU_Escapes(t *testing.T) {
	got := SplitGNU(`a\ b "c\"d" e\\f`)
	want := []string{"a b", `c"d`, `e\f`}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitGNU_SingleQuotesVerbatim(t *testing.T) {
	got := SplitGNU(`'a\nb' 'c d'`)
	want := []string{`a\nb`, "c d"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitGNU_TrailingBackslashDropped(t *testing.T) {
	got := SplitGNU(`abc\`)
	want := []string{"abc"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitGNU_UnterminatedQuote(t *testing.T) {
	got := SplitGNU(`"abc def`)
	want := []string{"abc def"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitGNU_EmptyQuotes(t *testing.T) {
	got := SplitGNU(`a '' b`)
	want := []string{"a", "", "b"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitGNU_Empty(t *testing.T) {
	if got := SplitGNU("   "); len(got) != 0 {
		t.Fatalf("args = %q, want none", got)
	}
}

func TestJoinGNU_RoundTrip(t *testing.T) {
	args := []string{"plain", "with space", `back\slash`, `quo"te`, "apo'strophe", ""}
	got := SplitGNU(JoinGNU(args))
	// Empty arguments cannot survive a backslash-only join.
	want := args[:len(args)-1]
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitGlib_Comment(t *testing.T) {
	got := SplitGlib("a #comment\nb")
	want := []string{"a", "b"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitGlib_HashInsideToken(t *testing.T) {
	got := SplitGlib("a#b")
	want := []string{"a#b"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitGlib_DoubleQuoteEscapes(t *testing.T) {
	// Inside double quotes only $, ', ", \ and newline are escapable;
	// any other pair keeps its backslash.
	got := SplitGlib(`"a\$b" "c\zd" "e\\f"`)
	want := []string{"a$b", `c\zd`, `e\f`}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestJoinGlib_RoundTrip(t *testing.T) {
	args := []string{"plain", "with space", "star*glob", "semi;colon", "$var"}
	got := SplitGlib(JoinGlib(args))
	if diff := cmp.Diff(args, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitWindows_Quoting(t *testing.T) {
	got := SplitWindows(`"a b" c`)
	want := []string{"a b", "c"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitWindows_BackslashRules(t *testing.T) {
	// 2n backslashes before a quote collapse to n and the quote
	// toggles quoting; 2n+1 collapse to n with a literal quote.
	got := SplitWindows(`a\\\"b a\\"b c"`)
	want := []string{`a\"b`, `a\b c`}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitWindows_LiteralBackslashes(t *testing.T) {
	got := SplitWindows(`C:\dir\file a\\b`)
	want := []string{`C:\dir\file`, `a\\b`}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitWindows_OnlySpaceAndTabDelimit(t *testing.T) {
	got := SplitWindows("a\nb\tc")
	want := []string{"a\nb", "c"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestJoinWindows_RoundTrip(t *testing.T) {
	args := []string{"plain", "with space", `trailing\`, `quo"te`, `slash\ "mix`}
	got := SplitWindows(JoinWindows(args))
	if diff := cmp.Diff(args, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}
