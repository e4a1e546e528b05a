package cliarg

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// optName is one indexed name of an option: a short name, a long name,
// or a positional slot.
type optName struct {
	opt      option
	invert   bool   // boolean name that assigns false instead of true
	optional bool   // value (or positional) need not be present
	name     string // display name, positionals only
	pos      int    // declaration order within the owning option
}

// nameListKind filters which of a boolean option's names are listed.
type nameListKind int

const (
	nameEnable     nameListKind = iota // names that enable the option
	nameDisable                        // names that disable it
	nameAll                            // every name
	nameNonDefault                     // names that change the default
)

// optIndex holds the per-parse lookup tables built from the option
// declarations in scope for one command.
type optIndex struct {
	shortNames    map[rune]optName
	longNames     map[string]optName
	argNames      []optName
	allowCommands bool
	requiredPos   int
}

// index rebuilds the lookup tables for the options scoped to cmd.
func (ndx *optIndex) index(c *Cli, cmd string, requireVisible bool) {
	ndx.shortNames = map[rune]optName{}
	ndx.longNames = map[string]optName{}
	ndx.argNames = nil
	ndx.allowCommands = cmd == ""
	ndx.requiredPos = 0
	for _, o := range c.cfg.opts {
		b := o.base()
		if b.command == cmd && (b.visible || !requireVisible) {
			ndx.indexOpt(o)
		}
	}
	for i := range ndx.argNames {
		if ndx.argNames[i].name == "" {
			ndx.argNames[i].name = fmt.Sprintf("arg%d", i+1)
		}
	}
}

// indexOpt parses one option's name pattern and inserts each name.
// Malformed patterns panic; declaration errors are programmer errors.
func (ndx *optIndex) indexOpt(o option) {
	if ndx.shortNames == nil {
		ndx.shortNames = map[rune]optName{}
		ndx.longNames = map[string]optName{}
	}
	b := o.base()
	names := b.names
	hasPos := false
	pos := 0
	i := 0
	for i < len(names) {
		ch := names[i]
		if ch == ' ' {
			i++
			continue
		}
		var closer byte
		switch ch {
		case '[':
			closer = ']'
		case '<':
			closer = '>'
		default:
			closer = ' '
		}
		start := i
		hasEqual := false
		for i < len(names) && names[i] != closer {
			if names[i] == '=' {
				hasEqual = true
			}
			i++
		}
		switch {
		case hasEqual && closer == ' ':
			panic("cliarg: bad argument name " + quoted(names[start:i]) + ", contains '='")
		case hasPos && closer != ' ':
			panic("cliarg: argument " + quoted(names) + " has multiple positional names")
		default:
			var name string
			if closer == ' ' {
				name = names[start:i]
			} else {
				hasPos = true
				name = names[start:start+1] + strings.TrimSpace(names[start+1:i])
			}
			ndx.indexName(o, name, pos)
			pos += 2
		}
		if i < len(names) {
			i++ // closing bracket or space
		}
	}
}

func (ndx *optIndex) indexName(o option, name string, pos int) {
	b := o.base()
	invert := false
	optional := false

	switch name[0] {
	case '-':
		panic("cliarg: bad argument name " + quoted(name) + ", contains '-'")
	case '[', '<':
		optional = name[0] == '['
		if b.maxVec == 0 {
			return
		}
		if !optional {
			ndx.requiredPos += b.minVec
		}
		if b.command == "" && (optional || b.minVec != b.maxVec) {
			// Positionals that make a potential subcommand name
			// ambiguous cannot be combined with subcommands.
			ndx.allowCommands = false
		}
		on := optName{opt: o, invert: invert, optional: optional, name: name[1:], pos: pos}
		ndx.argNames = append(ndx.argNames, on)
		b.setNameIfEmpty(name[1:])
		return
	}

	prefix := 0
	if utf8.RuneCountInString(name) > 1 {
		switch name[0] {
		case '!':
			// Inversion only changes behavior for boolean and
			// flag-value options; it is accepted elsewhere because an
			// option may later be turned into a flag-value.
			prefix = 1
			invert = true
		case '?':
			if b.boolOpt {
				panic("cliarg: bad modifier '?' for bool argument " + quoted(name))
			}
			prefix = 1
			optional = true
		}
	}
	rest := name[prefix:]
	if utf8.RuneCountInString(rest) == 1 {
		r, _ := utf8.DecodeRuneInString(rest)
		ndx.shortNames[r] = optName{opt: o, invert: invert, optional: optional, pos: pos}
		b.setNameIfEmpty("-" + rest)
		return
	}
	ndx.indexLongName(o, rest, invert, optional, pos)
}

func (ndx *optIndex) indexLongName(o option, name string, invert, optional bool, pos int) {
	b := o.base()
	allowNo := true
	key := name
	if strings.HasSuffix(key, ".") {
		allowNo = false
		key = key[:len(key)-1]
		if utf8.RuneCountInString(key) == 1 {
			panic("cliarg: bad modifier '.' for short name " + quoted(name))
		}
	}
	b.setNameIfEmpty("--" + key)
	ndx.longNames[key] = optName{opt: o, invert: invert, optional: optional, pos: pos}
	if b.boolLike() && allowNo {
		ndx.longNames["no-"+key] = optName{opt: o, invert: !invert, optional: optional, pos: pos + 1}
	}
}

// optKey pairs an option with its rendered name list for help output.
type optKey struct {
	sort string
	list string
	opt  option
}

// findNamedOpts collects the named options in scope with their
// formatted name lists, sorted by group sort key then by name, and
// reports the widest list that fits the description column.
func (ndx *optIndex) findNamedOpts(
	c *Cli,
	cmd *commandConfig,
	kind nameListKind,
	flatten bool,
) (keys []optKey, colWidth int) {
	for _, o := range c.cfg.opts {
		list := ndx.nameList(o, kind)
		if list == "" {
			continue
		}
		if w := displayWidth(list); w < c.cfg.maxDescCol {
			colWidth = max(colWidth, w)
		}
		key := optKey{opt: o, list: list}
		key.sort = findGrpAlways(cmd, o.base().group).sortKey
		if flatten && key.sort != internalOptionGroup {
			key.sort = ""
		}
		key.sort += "\x00" + strings.TrimLeft(list, "-")
		keys = append(keys, key)
	}
	sort.SliceStable(keys, func(i, j int) bool { return keys[i].sort < keys[j].sort })
	return keys, colWidth
}

func includeName(on optName, kind nameListKind, o option) bool {
	if on.opt != o {
		return false
	}
	b := o.base()
	if !b.boolLike() {
		return true
	}
	switch kind {
	case nameEnable:
		return !on.invert
	case nameDisable:
		return on.invert
	default: // nameNonDefault
		return o.defaultBool() == on.invert
	}
}

// nameList renders the names of one option for help output, for
// example "-c, --color=COLOR" or "--fruit / --no-fruit".
func (ndx *optIndex) nameList(o option, kind nameListKind) string {
	b := o.base()
	if kind == nameAll {
		list := ndx.nameList(o, nameEnable)
		if b.boolLike() {
			if invert := ndx.nameList(o, nameDisable); invert != "" {
				if list == "" {
					list = "/ " + invert
				} else {
					list += " / " + invert
				}
			}
		}
		return list
	}

	var list strings.Builder
	foundLong := false
	optional := false

	type shortEntry struct {
		r  rune
		on optName
	}
	var shorts []shortEntry
	for r, on := range ndx.shortNames {
		shorts = append(shorts, shortEntry{r, on})
	}
	sort.Slice(shorts, func(i, j int) bool { return shorts[i].on.pos < shorts[j].on.pos })
	for _, sn := range shorts {
		if !includeName(sn.on, kind, o) {
			continue
		}
		optional = sn.on.optional
		if list.Len() > 0 {
			list.WriteString(", ")
		}
		list.WriteByte('-')
		list.WriteRune(sn.r)
	}
	type longEntry struct {
		name string
		on   optName
	}
	var longs []longEntry
	for name, on := range ndx.longNames {
		longs = append(longs, longEntry{name, on})
	}
	sort.Slice(longs, func(i, j int) bool { return longs[i].on.pos < longs[j].on.pos })
	for _, ln := range longs {
		if !includeName(ln.on, kind, o) {
			continue
		}
		optional = ln.on.optional
		if list.Len() > 0 {
			list.WriteString(", ")
		}
		foundLong = true
		list.WriteString("--")
		list.WriteString(ln.name)
	}
	if b.boolLike() || list.Len() == 0 {
		return list.String()
	}

	valDesc := b.valueDesc
	if valDesc == "" {
		valDesc = defaultValueDesc(o)
	}
	if optional {
		if foundLong {
			list.WriteString("[=" + valDesc + "]")
		} else {
			list.WriteString(" [" + valDesc + "]")
		}
	} else {
		if foundLong {
			list.WriteString("=" + valDesc)
		} else {
			list.WriteString(" " + valDesc)
		}
	}
	return list.String()
}

func defaultValueDesc(o option) string {
	if d := o.base().valueDescAuto; d != "" {
		return d
	}
	return "VALUE"
}

func quoted(s string) string { return fmt.Sprintf("%q", s) }
