package cliarg

import (
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/sasanktumpati/cliarg/internal/render"
)

func displayWidth(s string) int { return runewidth.StringWidth(s) }

// displayName reduces a program path to the name shown in help text.
func displayName(file string) string {
	if file == "" {
		return ""
	}
	base := filepath.Base(file)
	if runtime.GOOS == "windows" {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return base
}

// consoleWidth reports the column count of w when it is a terminal.
func consoleWidth(w io.Writer) int {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return defaultConsoleWidth
	}
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return defaultConsoleWidth
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return defaultConsoleWidth
	}
	return width
}

// wrapPos tracks the output column while wrapping help text.
type wrapPos struct {
	pos        int
	prefix     string
	minDescCol int
	maxDescCol int
	maxWidth   int
}

func newWrapPos(cfg *config) wrapPos {
	return wrapPos{
		minDescCol: cfg.minDescCol,
		maxDescCol: cfg.maxDescCol,
		maxWidth:   cfg.maxLineWidth,
	}
}

func (wp *wrapPos) clampDescWidth(colWidth int) int {
	return min(max(colWidth, wp.minDescCol), wp.maxDescCol)
}

func writeNewline(w io.Writer, wp *wrapPos) {
	fmt.Fprint(w, "\n"+wp.prefix)
	wp.pos = displayWidth(wp.prefix)
}

// writeToken writes one token, breaking the line first if it would
// run past the wrap width.
func writeToken(w io.Writer, wp *wrapPos, token string) {
	tokw := displayWidth(token)
	if wp.pos+tokw+1 > wp.maxWidth && wp.pos > displayWidth(wp.prefix) {
		writeNewline(w, wp)
	}
	if wp.pos > 0 {
		fmt.Fprint(w, " ")
		wp.pos++
	}
	fmt.Fprint(w, token)
	wp.pos += tokw
}

// writeText writes a run of tokens, collapsing spaces and honoring
// embedded newlines.
func writeText(w io.Writer, wp *wrapPos, text string) {
	for {
		text = strings.TrimLeft(text, " ")
		if text == "" {
			return
		}
		nl := strings.IndexByte(text, '\n')
		sp := strings.IndexByte(text, ' ')
		if sp < 0 {
			sp = len(text)
		}
		if nl >= 0 && nl < sp {
			writeToken(w, wp, text[:nl])
			writeNewline(w, wp)
			text = text[nl+1:]
		} else {
			writeToken(w, wp, text[:sp])
			text = text[sp:]
		}
	}
}

// writeDescCol writes text starting at descCol, indenting continuation
// lines to the same column.
func writeDescCol(w io.Writer, wp *wrapPos, text string, descCol int) {
	if text == "" {
		return
	}
	switch {
	case wp.pos < descCol:
		writeToken(w, wp, strings.Repeat(" ", descCol-wp.pos-1))
	case wp.pos < descCol+4:
		fmt.Fprint(w, " ")
		wp.pos++
	default:
		wp.pos = wp.maxWidth
	}
	wp.prefix = strings.Repeat(" ", descCol)
	writeText(w, wp, text)
}

// descStr renders an option's description with its default, limit, or
// flag-default annotation.
func descStr(o option) string {
	b := o.base()
	desc := b.desc
	switch {
	case len(b.choiceDescs) > 0:
		// The default tag goes on the individual choices instead.
	case b.flagValue && b.flagDefault:
		desc += " (default)"
	case b.vector:
		if b.minVec != 1 || b.maxVec != -1 {
			desc += fmt.Sprintf(" (limit: %d", b.minVec)
			if b.maxVec == -1 {
				desc += "+"
			} else if b.minVec != b.maxVec {
				desc += fmt.Sprintf(" to %d", b.maxVec)
			}
			desc += ")"
		}
	case !b.boolOpt:
		if s, ok := o.defaultString(); ok && s != "" {
			desc += " (default: " + s + ")"
		}
	}
	return desc
}

type choiceKey struct {
	pos     int
	key     string
	desc    string
	sortKey string
	def     bool
}

func getChoiceKeys(choices map[string]choiceDesc) (keys []choiceKey, maxWidth int) {
	for k, cd := range choices {
		maxWidth = max(maxWidth, displayWidth(k))
		keys = append(keys, choiceKey{
			pos: cd.pos, key: k, desc: cd.desc, sortKey: cd.sortKey, def: cd.def,
		})
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].sortKey != keys[j].sortKey {
			return keys[i].sortKey < keys[j].sortKey
		}
		return keys[i].pos < keys[j].pos
	})
	return keys, maxWidth
}

func writeChoices(w io.Writer, wp *wrapPos, choices map[string]choiceDesc) {
	if len(choices) == 0 {
		return
	}
	keys, colWidth := getChoiceKeys(choices)
	const indent = 6
	colWidth = wp.clampDescWidth(colWidth + indent + 1)

	for _, k := range keys {
		wp.prefix = strings.Repeat(" ", indent+2)
		writeToken(w, wp, strings.Repeat(" ", indent)+k.key)
		desc := k.desc
		if k.def {
			desc += " (default)"
		}
		writeDescCol(w, wp, desc, colWidth)
		fmt.Fprint(w, "\n")
		wp.pos = 0
	}
}

// choicesDetail builds the "Must be ..." detail listing an option's
// accepted values.
func choicesDetail(c *Cli, b *optBase) string {
	if len(b.choiceDescs) == 0 {
		return ""
	}
	var sb strings.Builder
	wp := newWrapPos(c.cfg)
	writeText(&sb, &wp, "Must be ")
	keys, _ := getChoiceKeys(b.choiceDescs)
	num := len(keys)
	for pos, k := range keys {
		val := `"` + k.key + `"`
		switch {
		case pos == 0 && num == 2:
			writeToken(&sb, &wp, val)
			writeToken(&sb, &wp, "or")
		case pos+1 == num:
			writeToken(&sb, &wp, val+".")
		default:
			writeToken(&sb, &wp, val+",")
			if pos+2 == num {
				writeToken(&sb, &wp, "or")
			}
		}
	}
	return sb.String()
}

// writeHelpBlock writes one of the free text blocks (header,
// description, footer), optionally rendered as terminal markdown.
func (c *Cli) writeHelpBlock(w io.Writer, text string, blankBefore bool) {
	if text == "" {
		return
	}
	if c.cfg.helpMarkdown {
		if blankBefore {
			fmt.Fprint(w, "\n")
		}
		fmt.Fprintln(w, render.Markdown(text, c.cfg.maxLineWidth, true))
		return
	}
	wp := newWrapPos(c.cfg)
	if blankBefore {
		writeNewline(w, &wp)
	}
	writeText(w, &wp, text)
	fmt.Fprint(w, "\n")
}

// WriteHelp writes the full help page for the named command (or the
// top level when cmdName is empty). arg0 overrides the program name
// recorded by the last parse.
func (c *Cli) WriteHelp(w io.Writer, arg0, cmdName string) {
	cmd := findCmdAlways(c, cmdName)
	top := findCmdAlways(c, "")
	hdr := cmd.header
	if hdr == "" {
		hdr = top.header
	}
	c.writeHelpBlock(w, hdr, false)
	c.WriteUsage(w, arg0, cmdName)
	c.writeHelpBlock(w, cmd.desc, true)
	if cmdName == "" {
		c.writeCommands(w)
	}
	c.writePositionals(w, cmdName)
	c.writeOptions(w, cmdName)
	ftr := cmd.footer
	if ftr == "" {
		ftr = top.footer
	}
	c.writeHelpBlock(w, ftr, true)
}

// WriteUsage writes the one line usage summary with the options
// collapsed to "[OPTIONS]".
func (c *Cli) WriteUsage(w io.Writer, arg0, cmdName string) {
	c.writeUsageImpl(w, arg0, cmdName, false)
}

// WriteUsageEx is WriteUsage with every visible option spelled out.
func (c *Cli) WriteUsageEx(w io.Writer, arg0, cmdName string) {
	c.writeUsageImpl(w, arg0, cmdName, true)
}

func (c *Cli) writeUsageImpl(w io.Writer, arg0, cmdName string, expanded bool) {
	var ndx optIndex
	ndx.index(c, cmdName, true)
	cmd := findCmdAlways(c, cmdName)
	prog := arg0
	if prog == "" {
		prog = c.ProgName()
	}
	prog = displayName(prog)
	const usageStr = "usage: "
	fmt.Fprint(w, usageStr+prog)
	wp := newWrapPos(c.cfg)
	wp.pos = displayWidth(prog) + len(usageStr)
	wp.prefix = strings.Repeat(" ", wp.pos)
	if cmdName != "" {
		writeToken(w, &wp, cmdName)
	}
	if len(ndx.shortNames) > 0 || len(ndx.longNames) > 0 {
		if !expanded {
			writeToken(w, &wp, "[OPTIONS]")
		} else {
			keys, _ := ndx.findNamedOpts(c, cmd, nameNonDefault, true)
			for _, key := range keys {
				writeToken(w, &wp, "["+key.list+"]")
			}
		}
	}
	if cmdName == "" && len(c.cfg.cmds) > 1 {
		writeToken(w, &wp, "command")
		writeToken(w, &wp, "[args...]")
	} else {
		for _, pa := range ndx.argNames {
			token := pa.name
			if strings.Contains(token, " ") {
				token = "<" + token + ">"
			}
			if pa.opt.base().vector {
				token += "..."
			}
			if pa.optional {
				writeToken(w, &wp, "["+token+"]")
			} else {
				writeToken(w, &wp, token)
			}
		}
	}
	fmt.Fprint(w, "\n")
}

func (c *Cli) writePositionals(w io.Writer, cmdName string) {
	var ndx optIndex
	ndx.index(c, cmdName, true)
	colWidth := 0
	hasDesc := false
	for _, pa := range ndx.argNames {
		if dw := displayWidth(pa.name); dw < c.cfg.maxDescCol {
			colWidth = max(colWidth, dw)
		}
		hasDesc = hasDesc || pa.opt.base().desc != ""
	}
	if !hasDesc {
		return
	}

	wp := newWrapPos(c.cfg)
	colWidth = wp.clampDescWidth(colWidth + 3)
	for _, pa := range ndx.argNames {
		wp.prefix = strings.Repeat(" ", 4)
		writeToken(w, &wp, "  "+pa.name)
		writeDescCol(w, &wp, descStr(pa.opt), colWidth)
		fmt.Fprint(w, "\n")
		wp.pos = 0
		writeChoices(w, &wp, pa.opt.base().choiceDescs)
	}
}

func (c *Cli) writeOptions(w io.Writer, cmdName string) {
	var ndx optIndex
	ndx.index(c, cmdName, true)
	cmd := findCmdAlways(c, cmdName)

	keys, colWidth := ndx.findNamedOpts(c, cmd, nameAll, false)
	if len(keys) == 0 {
		return
	}

	wp := newWrapPos(c.cfg)
	colWidth = wp.clampDescWidth(colWidth + 3)
	first := true
	gname := ""
	for i, key := range keys {
		b := key.opt.base()
		if first || b.group != gname {
			gname = b.group
			first = false
			writeNewline(w, &wp)
			title := findGrpAlways(cmd, gname).title
			if title == "" && gname == internalOptionGroup && i == 0 {
				// First group shown and it's the internal one, give it
				// a title so it's not left hanging.
				title = "Options"
			}
			if title != "" {
				writeText(w, &wp, title+":")
				writeNewline(w, &wp)
			}
		}
		wp.prefix = strings.Repeat(" ", 4)
		fmt.Fprint(w, " ")
		wp.pos = 1
		writeText(w, &wp, key.list)
		writeDescCol(w, &wp, descStr(key.opt), colWidth)
		wp.prefix = ""
		writeNewline(w, &wp)
		writeChoices(w, &wp, b.choiceDescs)
		wp.prefix = ""
	}
}

func (c *Cli) writeCommands(w io.Writer) {
	touchAllCmds(c)

	type cmdKey struct {
		name string
		cmd  *commandConfig
		grp  *groupConfig
	}
	colWidth := 0
	var keys []cmdKey
	for name, cmd := range c.cfg.cmds {
		if name == "" {
			continue
		}
		if dw := displayWidth(name); dw < c.cfg.maxDescCol {
			colWidth = max(colWidth, dw)
		}
		keys = append(keys, cmdKey{
			name: name, cmd: cmd, grp: c.cfg.cmdGroups[cmd.cmdGroup],
		})
	}
	if len(keys) == 0 {
		return
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].grp.sortKey != keys[j].grp.sortKey {
			return keys[i].grp.sortKey < keys[j].grp.sortKey
		}
		return keys[i].name < keys[j].name
	})

	wp := newWrapPos(c.cfg)
	colWidth = wp.clampDescWidth(colWidth + 3)
	first := true
	gname := ""
	for i, key := range keys {
		if first || key.grp.name != gname {
			gname = key.grp.name
			first = false
			writeNewline(w, &wp)
			title := key.grp.title
			if title == "" && gname == internalOptionGroup && i == 0 {
				title = "Commands"
			}
			if title != "" {
				writeText(w, &wp, title+":")
				writeNewline(w, &wp)
			}
		}
		wp.prefix = strings.Repeat(" ", 4)
		writeToken(w, &wp, "  "+key.name)
		writeDescCol(w, &wp, firstSentence(key.cmd.desc), colWidth)
		wp.prefix = ""
		writeNewline(w, &wp)
	}
}

// firstSentence trims a command description to its first sentence for
// the command list.
func firstSentence(desc string) string {
	pos := 0
	for {
		i := strings.IndexAny(desc[pos:], ".!?")
		if i < 0 {
			break
		}
		pos += i + 1
		if pos < len(desc) && desc[pos] == ' ' {
			desc = desc[:pos]
			break
		}
	}
	return strings.TrimSpace(desc)
}

// PrintError reports the outcome of the last parse or exec to w and
// returns the exit code. Nothing is printed for intentional stops.
func (c *Cli) PrintError(w io.Writer) int {
	code := c.ExitCode()
	if code != ExitOk {
		fmt.Fprintln(w, "Error:", c.ErrMsg())
		if detail := c.ErrDetail(); detail != "" {
			fmt.Fprintln(w, detail)
		}
	}
	return code
}
