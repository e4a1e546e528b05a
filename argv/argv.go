// Package argv splits command lines into argument vectors and joins
// argument vectors back into command lines. Three quoting dialects are
// supported: GNU (libiberty buildargv), Glib (g_shell_parse_argv without
// expansions), and Windows (MSVC command-line rules).
//
// Join is an inverse of Split per dialect: splitting a joined vector
// yields the original tokens, though not necessarily the original text.
package argv

import (
	"runtime"
	"strings"
)

// Split tokenizes cmdline using the platform's native dialect: Windows
// rules on Windows, GNU rules everywhere else.
func Split(cmdline string) []string {
	if runtime.GOOS == "windows" {
		return SplitWindows(cmdline)
	}
	return SplitGNU(cmdline)
}

// Join quotes args using the platform's native dialect.
func Join(args []string) string {
	if runtime.GOOS == "windows" {
		return JoinWindows(args)
	}
	return JoinGNU(args)
}

func isSpace(ch byte) bool {
	switch ch {
	case ' ', '\t', '\r', '\n', '\f', '\v':
		return true
	}
	return false
}

// SplitGNU tokenizes cmdline with GNU-style rules. Arguments are split
// on unescaped whitespace. A backslash escapes the next character (a
// trailing backslash is dropped). Single quotes preserve their contents
// verbatim; inside double quotes a backslash still escapes the next
// character. An unterminated quote extends to the end of the input.
func SplitGNU(cmdline string) []string {
	var out []string
	var arg strings.Builder
	inArg := false
	i := 0
	n := len(cmdline)

	flush := func() {
		out = append(out, arg.String())
		arg.Reset()
		inArg = false
	}

	for i < n {
		ch := cmdline[i]
		i++
		switch ch {
		case '\\':
			inArg = true
			if i < n {
				arg.WriteByte(cmdline[i])
				i++
			}
		case '\'':
			inArg = true
			for i < n && cmdline[i] != '\'' {
				arg.WriteByte(cmdline[i])
				i++
			}
			if i < n {
				i++ // closing quote
			}
		case '"':
			inArg = true
			for i < n && cmdline[i] != '"' {
				c := cmdline[i]
				i++
				if c == '\\' {
					if i < n {
						arg.WriteByte(cmdline[i])
						i++
					}
					continue
				}
				arg.WriteByte(c)
			}
			if i < n {
				i++
			}
		case ' ', '\t', '\r', '\n', '\f', '\v':
			if inArg {
				flush()
			}
		default:
			inArg = true
			arg.WriteByte(ch)
		}
	}
	if inArg {
		flush()
	}
	return out
}

// SplitGlib tokenizes cmdline with the rules of g_shell_parse_argv,
// ignoring expansions and operators. It differs from SplitGNU in two
// ways: a '#' beginning a token starts a comment running to the end of
// the line, and inside double quotes a backslash escapes only '$', '\'',
// '"', '\\' and newline (an escaped newline is elided; any other pair
// keeps the backslash).
func SplitGlib(cmdline string) []string {
	var out []string
	var arg strings.Builder
	inArg := false
	i := 0
	n := len(cmdline)

	flush := func() {
		out = append(out, arg.String())
		arg.Reset()
		inArg = false
	}

	for i < n {
		ch := cmdline[i]
		i++
		switch ch {
		case '#':
			if inArg {
				arg.WriteByte(ch)
				continue
			}
			for i < n && cmdline[i] != '\r' && cmdline[i] != '\n' {
				i++
			}
		case '\\':
			inArg = true
			if i < n {
				c := cmdline[i]
				i++
				if c != '\n' {
					arg.WriteByte(c)
				}
			}
		case '\'':
			inArg = true
			for i < n && cmdline[i] != '\'' {
				arg.WriteByte(cmdline[i])
				i++
			}
			if i < n {
				i++
			}
		case '"':
			inArg = true
			for i < n && cmdline[i] != '"' {
				c := cmdline[i]
				i++
				if c == '\\' && i < n {
					switch cmdline[i] {
					case '$', '\'', '"', '\\':
						c = cmdline[i]
						i++
					case '\n':
						i++
						continue
					}
				}
				arg.WriteByte(c)
			}
			if i < n {
				i++
			}
		case ' ', '\t', '\r', '\n', '\f', '\v':
			if inArg {
				flush()
			}
		default:
			inArg = true
			arg.WriteByte(ch)
		}
	}
	if inArg {
		flush()
	}
	return out
}

// SplitWindows tokenizes cmdline with the rules from "Parsing C++
// Command-Line Arguments" on MSDN. Arguments are split on unquoted
// space and tab. Backslashes are literal unless they immediately precede
// a double quote: then each pair collapses to one backslash, and an odd
// remainder makes the quote a literal character instead of a delimiter.
func SplitWindows(cmdline string) []string {
	var out []string
	var arg strings.Builder
	inArg := false
	quoted := false
	backslashes := 0
	i := 0
	n := len(cmdline)

	appendBackslashes := func() {
		for ; backslashes > 0; backslashes-- {
			arg.WriteByte('\\')
		}
	}
	flush := func() {
		appendBackslashes()
		out = append(out, arg.String())
		arg.Reset()
		inArg = false
	}

	for i < n {
		ch := cmdline[i]
		i++
		switch ch {
		case '\\':
			inArg = true
			backslashes++
		case '"':
			inArg = true
			if num := backslashes; num > 0 {
				backslashes = 0
				for j := 0; j < num/2; j++ {
					arg.WriteByte('\\')
				}
				if num%2 == 1 {
					arg.WriteByte('"')
					continue
				}
			}
			quoted = !quoted
		case ' ', '\t':
			if quoted {
				appendBackslashes()
				arg.WriteByte(ch)
				continue
			}
			if inArg {
				flush()
			}
		default:
			inArg = true
			appendBackslashes()
			arg.WriteByte(ch)
		}
	}
	if inArg {
		flush()
	}
	return out
}

// JoinGNU builds a command line that SplitGNU tokenizes back into args.
// Everything is escaped with backslashes; no quotes are emitted.
func JoinGNU(args []string) string {
	var out strings.Builder
	for i, arg := range args {
		if i > 0 {
			out.WriteByte(' ')
		}
		for j := 0; j < len(arg); j++ {
			ch := arg[j]
			if isSpace(ch) || ch == '\\' || ch == '\'' || ch == '"' {
				out.WriteByte('\\')
			}
			out.WriteByte(ch)
		}
	}
	return out.String()
}

// JoinGlib builds a command line that SplitGlib tokenizes back into
// args. Beyond the characters that must be escaped to survive
// tokenization, shell metacharacters are escaped so the result is also
// safe to hand to a real shell.
func JoinGlib(args []string) string {
	var out strings.Builder
	for i, arg := range args {
		if i > 0 {
			out.WriteByte(' ')
		}
		for j := 0; j < len(arg); j++ {
			ch := arg[j]
			switch ch {
			case '|', '&', ';', '<', '>', '(', ')', '$', '`', '\\', '"', '\'',
				' ', '\t', '\r', '\n', '\f', '\v',
				'*', '?', '[', '#', '~', '=', '%':
				out.WriteByte('\\')
			}
			out.WriteByte(ch)
		}
	}
	return out.String()
}

// JoinWindows builds a command line that SplitWindows tokenizes back
// into args. Arguments containing whitespace are quoted; backslashes
// preceding a quote (or the closing quote) are doubled.
func JoinWindows(args []string) string {
	var out strings.Builder
	for i, arg := range args {
		if i > 0 {
			out.WriteByte(' ')
		}
		if !strings.ContainsAny(arg, " \t") {
			appendWindowsArg(&out, arg, false)
			continue
		}
		out.WriteByte('"')
		appendWindowsArg(&out, arg, true)
		out.WriteByte('"')
	}
	return out.String()
}

func appendWindowsArg(out *strings.Builder, arg string, quoted bool) {
	backslashes := 0
	for j := 0; j < len(arg); j++ {
		ch := arg[j]
		switch ch {
		case '\\':
			backslashes++
		case '"':
			for k := 0; k < backslashes+1; k++ {
				out.WriteByte('\\')
			}
			backslashes = 0
		default:
			backslashes = 0
		}
		out.WriteByte(ch)
	}
	if quoted {
		// Trailing backslashes would otherwise escape the closing quote.
		for k := 0; k < backslashes; k++ {
			out.WriteByte('\\')
		}
	}
}
