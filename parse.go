package cliarg

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/sasanktumpati/cliarg/argv"
)

type rawKind int

const (
	rawPositional rawKind = iota
	rawNamed
	rawCommand
)

// rawValue is one classified token from the first parsing pass. For
// positionals opt stays nil until positional assignment runs; a nil
// text means the option was named without a value.
type rawValue struct {
	kind rawKind
	opt  option
	name string
	pos  int // index into the argument vector
	text *string
}

type cmdState int

const (
	cmdNone    cmdState = iota
	cmdPending          // command expected but not yet seen
	cmdFound
	cmdUnknown // unmatched name, remaining args collected verbatim
)

// Accepted boolean value literals, matched case-insensitively.
var boolTokens = map[string]bool{
	"1": true, "t": true, "y": true, "+": true,
	"true": true, "yes": true, "on": true, "enable": true,
	"0": false, "f": false, "n": false, "-": false,
	"false": false, "no": false, "off": false, "disable": false,
}

func parseBoolToken(val string) (bool, bool) {
	b, ok := boolTokens[strings.ToLower(val)]
	return b, ok
}

// ResetValues restores every option to its default and clears the
// results of the previous parse.
func (c *Cli) ResetValues() {
	for _, o := range c.cfg.opts {
		o.reset()
	}
	c.cfg.exitCode = ExitOk
	c.cfg.errMsg = ""
	c.cfg.errDetail = ""
	c.cfg.progName = ""
	c.cfg.command = ""
	c.cfg.unknownArgs = nil
}

// Parse processes the argument vector (args[0] is the program name)
// into the declared options. A non-nil result is always a *Error; a
// Code of ExitOk signals an intentional early stop such as --help.
func (c *Cli) Parse(args []string) error {
	if len(args) == 0 {
		panic("cliarg: at least one (program name) argument required")
	}
	cfg := c.cfg
	touchAllCmds(c)
	var ndx optIndex
	ndx.index(c, "", false)

	mode := cmdNone
	if cfg.allowUnknown || len(cfg.cmds) > 1 {
		mode = cmdPending
	}
	// Commands require an unambiguous boundary: a top level positional
	// of uncertain arity could swallow the command name.
	if mode != cmdNone && !ndx.allowCommands {
		panic("cliarg: mixing top level positionals with commands")
	}

	c.ResetValues()

	if cfg.envOpts != "" {
		if val := os.Getenv(cfg.envOpts); val != "" {
			extra := argv.Split(val)
			args = append(args[:1:1], append(extra, args[1:]...)...)
		}
	}
	if cfg.responseFiles {
		var err error
		if args, err = expandResponseFiles(c, args); err != nil {
			return err
		}
	}
	for _, fn := range cfg.befores {
		var err error
		if args, err = fn(c, args); err != nil {
			return actionErr(c, err)
		}
	}

	cfg.progName = args[0]

	var raws []rawValue
	moreOpts := true
	numPos := 0
	precmd := 0

	for argPos := 1; argPos < len(args); argPos++ {
		arg := args[argPos]
		var on optName
		var name, attached string
		hasAttached := false
		haveOpt := false

		if moreOpts && len(arg) > 1 && arg[0] == '-' {
			body := arg[1:]
			for len(body) > 0 && body[0] != '-' {
				r, sz := utf8.DecodeRuneInString(body)
				body = body[sz:]
				name = "-" + string(r)
				var ok bool
				on, ok = ndx.shortNames[r]
				if !ok {
					return c.badUsage("Unknown option", name, "")
				}
				if on.opt.base().boolLike() {
					text := "1"
					if on.invert {
						text = "0"
					}
					raws = append(raws, rawValue{
						kind: rawNamed, opt: on.opt, name: name,
						pos: argPos, text: &text,
					})
					continue
				}
				// Everything after a short value option is its value,
				// taken verbatim (a leading '=' is not stripped).
				attached, hasAttached = body, body != ""
				haveOpt = true
				break
			}
			if !haveOpt {
				if body == "" {
					continue
				}
				body = body[1:]
				if body == "" {
					// Bare "--", all remaining args are positional.
					moreOpts = false
					continue
				}
				key := body
				if eq := strings.IndexByte(body, '='); eq >= 0 {
					key, attached, hasAttached = body[:eq], body[eq+1:], true
				}
				name = "--" + key
				var ok bool
				on, ok = ndx.longNames[key]
				if !ok {
					return c.badUsage("Unknown option", name, "")
				}
				if on.opt.base().boolLike() {
					val := true
					if hasAttached {
						if val, ok = parseBoolToken(attached); !ok {
							return c.badUsage("Invalid '"+name+"' value", attached, "")
						}
					}
					text := "1"
					if on.invert == val {
						text = "0"
					}
					raws = append(raws, rawValue{
						kind: rawNamed, opt: on.opt, name: name,
						pos: argPos, text: &text,
					})
					continue
				}
				haveOpt = true
			}
		}
		if haveOpt {
			switch {
			case hasAttached:
				v := attached
				raws = append(raws, rawValue{
					kind: rawNamed, opt: on.opt, name: name,
					pos: argPos, text: &v,
				})
			case on.optional:
				raws = append(raws, rawValue{
					kind: rawNamed, opt: on.opt, name: name, pos: argPos,
				})
			default:
				argPos++
				if argPos == len(args) {
					return c.badUsage("No value given for "+name, "", "")
				}
				v := args[argPos]
				raws = append(raws, rawValue{
					kind: rawNamed, opt: on.opt, name: name,
					pos: argPos, text: &v,
				})
			}
			continue
		}

		// Positional value, or the command name at the boundary.
		if mode == cmdPending && numPos == ndx.requiredPos {
			cmd := arg
			if err := assignPositionals(c, &ndx, raws, numPos); err != nil {
				return err
			}
			raws = append(raws, rawValue{kind: rawCommand, name: cmd, pos: argPos})
			precmd = len(raws)
			numPos = 0
			if c.CommandExists(cmd) {
				mode = cmdFound
				ndx.index(c, cmd, false)
			} else if cfg.allowUnknown {
				mode = cmdUnknown
				moreOpts = false
			} else {
				return c.badUsage("Unknown command", cmd, "")
			}
			cfg.command = cmd
			continue
		}
		if mode == cmdUnknown {
			cfg.unknownArgs = append(cfg.unknownArgs, arg)
			continue
		}
		numPos++
		v := arg
		raws = append(raws, rawValue{kind: rawPositional, pos: argPos, text: &v})
	}

	if mode != cmdUnknown {
		if err := assignPositionals(c, &ndx, raws[precmd:], numPos); err != nil {
			return err
		}
	}

	// Second pass: realize the values in command line order.
	cfg.command = ""
	for i := range raws {
		val := &raws[i]
		if val.kind == rawCommand {
			cfg.command = val.name
			continue
		}
		if err := c.parseValue(val.opt, val.name, val.pos, val.text); err != nil {
			return err
		}
	}

	// Report options with too few values.
	for _, an := range ndx.argNames {
		b := an.opt.base()
		if !an.optional {
			if !b.explicit || an.opt.size() < b.minVec {
				return badMinMatched(c, an.opt, an.name)
			}
		} else if an.pos == 0 && b.explicit && an.opt.size() < b.minVec {
			return badMinMatched(c, an.opt, an.name)
		}
	}
	for _, on := range ndx.shortNames {
		b := on.opt.base()
		if on.pos == 0 && b.explicit && on.opt.size() < b.minVec {
			return badMinMatched(c, on.opt, "")
		}
	}
	for _, on := range ndx.longNames {
		b := on.opt.base()
		if on.pos == 0 && b.explicit && on.opt.size() < b.minVec {
			return badMinMatched(c, on.opt, "")
		}
	}

	for _, o := range cfg.opts {
		b := o.base()
		if b.command != "" && b.command != c.CommandMatched() {
			continue
		}
		if err := o.doAfters(c); err != nil {
			return err
		}
	}
	return nil
}

// numMatches reports how many of the avail remaining positional tokens
// the positional slot takes during the given assignment pass.
//
// Passes:
//
//	0. minimum expected by required slots (vectors may need >1)
//	1. maximum expected by required slots
//	2. everything the optional slots will take
func numMatches(pass, avail int, an optName) int {
	b := an.opt.base()
	vec := b.minVec != 1 || b.maxVec != 1

	switch {
	case pass == 0 && !an.optional && vec && avail >= b.minVec:
		return b.minVec
	case pass == 1 && !an.optional && vec:
		if b.maxVec == -1 {
			return avail
		}
		return min(avail, b.maxVec-b.minVec)
	case pass == 2 && an.optional && vec && avail >= b.minVec:
		if b.maxVec == -1 {
			return avail
		}
		return min(avail, b.maxVec)
	case pass == 0 && !an.optional && !vec,
		pass == 2 && an.optional && !vec:
		return 1
	}
	return 0
}

// assignPositionals distributes the numPos positional tokens in raws
// over the positional slots in declaration order. A required slot's
// minimum must be met before any later pass hands out tokens.
func assignPositionals(c *Cli, ndx *optIndex, raws []rawValue, numPos int) error {
	matched := make([]int, len(ndx.argNames))
	usedPos := 0
	for pass := 0; pass < 3; pass++ {
		for i := range matched {
			if usedPos >= numPos {
				break
			}
			num := numMatches(pass, numPos-usedPos, ndx.argNames[i])
			matched[i] += num
			usedPos += num
		}
	}

	if usedPos < numPos {
		// Report the first token that found no home.
		seen := 0
		for i := range raws {
			if raws[i].kind != rawPositional || raws[i].opt != nil {
				continue
			}
			if seen == usedPos {
				return c.badUsage("Unexpected argument", *raws[i].text, "")
			}
			seen++
		}
		return c.badUsage("Unexpected argument", "", "")
	}

	ipos := 0
	imatch := 0
	for i := range raws {
		val := &raws[i]
		if val.opt != nil || val.kind != rawPositional {
			continue
		}
		if matched[ipos] <= imatch {
			imatch = 0
			for {
				ipos++
				if matched[ipos] != 0 {
					break
				}
			}
		}
		an := ndx.argNames[ipos]
		val.opt = an.opt
		val.name = an.name
		imatch++
	}
	return nil
}

// parseValue realizes one raw value: reserve a slot, convert the text
// (or fall back to the implicit value), and run the checks.
func (c *Cli) parseValue(o option, name string, pos int, text *string) error {
	b := o.base()
	if !assignSlot(o, name) {
		val := ""
		if text != nil {
			val = *text
		}
		detail := fmt.Sprintf("The maximum number of values is %d.", b.maxVec)
		return c.badUsage("Too many '"+name+"' values", val, detail)
	}
	if text == nil {
		o.assignImplicit()
		return o.doChecks(c, "")
	}
	if b.flagValue && !b.boolOpt {
		o.assignFlag(*text == "1")
		return o.doChecks(c, *text)
	}
	if err := o.doParse(c, *text); err != nil {
		return err
	}
	return o.doChecks(c, *text)
}

func badMinMatched(c *Cli, o option, name string) error {
	b := o.base()
	detail := ""
	switch {
	case b.minVec != 1 && b.minVec == b.maxVec:
		detail = fmt.Sprintf("Must have %d values.", b.minVec)
	case b.maxVec == -1:
		detail = fmt.Sprintf("Must have %d or more values.", b.minVec)
	case b.minVec != b.maxVec:
		detail = fmt.Sprintf("Must have %d to %d values.", b.minVec, b.maxVec)
	}
	if name == "" {
		name = b.fromName
	}
	return c.badUsage("Option '"+name+"' missing value.", "", detail)
}
