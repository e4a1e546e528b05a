package cliarg

import (
	"encoding"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PromptFlags adjust how a declared option prompts for a missing value.
type PromptFlags int

const (
	// PromptHide disables console echo while the value is typed.
	PromptHide PromptFlags = 1 << iota
	// PromptConfirm asks for the value twice and requires both entries
	// to match.
	PromptConfirm
	// PromptNoDefault leaves the default value out of the prompt text.
	PromptNoDefault
)

type choiceDesc struct {
	desc    string
	sortKey string
	pos     int
	def     bool
}

// option is the untyped view of a declared option used by the index,
// the parsing engine, and the help renderer.
type option interface {
	base() *optBase

	// reset restores the default value and clears parse state.
	reset()
	// parseDefault converts and stores one textual value using the
	// option's conversion (or its choice table). It reports failure
	// without recording a usage error.
	parseDefault(val string) bool
	// assignImplicit stores the implicit value used when an option is
	// named without a value.
	assignImplicit()
	// assignFlag stores the option's default value in its target when
	// a flag-value name resolves to on; off leaves the target alone.
	assignFlag(on bool)
	// size is the number of values currently held.
	size() int
	// defaultString renders the default value for help text.
	defaultString() (string, bool)
	// defaultBool is the default truth value; meaningful for boolean
	// and flag-value options only.
	defaultBool() bool

	doParse(c *Cli, val string) error
	doChecks(c *Cli, val string) error
	doAfters(c *Cli) error
}

// optBase carries the declaration state shared by Opt and OptVec.
type optBase struct {
	names   string
	boolOpt bool
	vector  bool
	minVec  int
	maxVec  int // -1 means unbounded

	desc          string
	valueDesc     string
	valueDescAuto string
	defaultDesc   *string
	group         string
	command       string
	visible       bool

	fromName string // name used by the most recent assignment
	defName  string // first name parsed from the declaration
	explicit bool   // assigned during the current parse

	choiceOrder []string
	choiceDescs map[string]choiceDesc

	required     bool
	promptEnable bool
	promptMsg    string
	promptFlags  PromptFlags

	flagValue   bool
	flagDefault bool
}

func (b *optBase) base() *optBase { return b }

// boolLike reports whether the option matches names like a boolean:
// true booleans and flag-values consume no separate value token.
func (b *optBase) boolLike() bool { return b.boolOpt || b.flagValue }

// From returns the option name used by the most recent assignment,
// for diagnostics.
func (b *optBase) From() string { return b.fromName }

// DefaultFrom returns the first name the option was declared with.
func (b *optBase) DefaultFrom() string { return b.defName }

// Seen reports whether the option received a value during the last
// parse.
func (b *optBase) Seen() bool { return b.explicit }

func (b *optBase) setNameIfEmpty(name string) {
	if b.defName == "" {
		b.defName = name
	}
}

// defaultPrompt derives a prompt from the option's first name: dashes
// stripped and the first letter capitalized.
func (b *optBase) defaultPrompt() string {
	name := strings.TrimLeft(b.defName, "-")
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// assignSlot checks arity and records the origin of an incoming value.
// It fails when a bounded vector is already full.
func assignSlot(o option, name string) bool {
	b := o.base()
	if b.vector && b.maxVec >= 0 && o.size() >= b.maxVec {
		return false
	}
	b.fromName = name
	b.explicit = true
	return true
}

// Opt is a single-valued option bound to a value of type T.
type Opt[T any] struct {
	optBase
	val      T
	target   *T
	defVal   T
	implicit T

	parseFn  func(c *Cli, o *Opt[T], val string) error
	checkFns []func(c *Cli, o *Opt[T], val string) error
	afterFns []func(c *Cli, o *Opt[T]) error

	choiceVals map[string]T
}

// NewOpt declares a single-valued option on c with the given name
// pattern and default value. Boolean options are declared with T bool.
// The pattern mini-language: "-x" (as "x") short name, "--long" (as
// "long") long name, "!" inverts a boolean name, "?" marks the value
// optional (non-boolean only), a trailing "." on a long name suppresses
// the automatic "no-" inverse, "<name>" a required positional, and
// "[name]" an optional positional. Malformed patterns panic at
// declaration time.
func NewOpt[T any](c *Cli, names string, def T) *Opt[T] {
	o := &Opt[T]{defVal: def, implicit: def}
	o.target = &o.val
	initOpt[T](c, &o.optBase, names, o)
	o.reset()
	return o
}

// NewOptPtr is NewOpt binding the parsed value to an external target.
// Several flag-value options may share one target.
func NewOptPtr[T any](c *Cli, target *T, names string, def T) *Opt[T] {
	o := &Opt[T]{defVal: def, implicit: def}
	o.target = target
	initOpt[T](c, &o.optBase, names, o)
	o.reset()
	return o
}

func initOpt[T any](c *Cli, b *optBase, names string, o option) {
	var zero T
	_, b.boolOpt = any(zero).(bool)
	b.names = names
	b.minVec, b.maxVec = 1, 1
	b.visible = true
	b.group = c.group
	b.command = c.command
	b.valueDescAuto = typeValueDesc[T]()
	// Validate the name pattern eagerly; malformed patterns panic here
	// rather than at parse time.
	var ndx optIndex
	ndx.indexOpt(o)
	c.cfg.opts = append(c.cfg.opts, o)
}

// Value returns the option's current value.
func (o *Opt[T]) Value() T { return *o.target }

func (o *Opt[T]) reset() {
	// Flag values share a target; only the default flag writes it.
	if !o.flagValue || o.flagDefault {
		*o.target = o.defVal
	}
	o.explicit = false
	o.fromName = ""
}

func (o *Opt[T]) size() int {
	if o.explicit {
		return 1
	}
	return 0
}

func (o *Opt[T]) parseDefault(val string) bool {
	if o.choiceVals != nil {
		v, ok := o.choiceVals[val]
		if !ok {
			return false
		}
		*o.target = v
		return true
	}
	return fromString(o.target, val)
}

func (o *Opt[T]) assignImplicit() { *o.target = o.implicit }

func (o *Opt[T]) assignFlag(on bool) {
	if on {
		*o.target = o.defVal
	}
}

func (o *Opt[T]) defaultString() (string, bool) {
	if o.defaultDesc != nil {
		return *o.defaultDesc, *o.defaultDesc != ""
	}
	return renderDefault(o.defVal)
}

func (o *Opt[T]) defaultBool() bool {
	if b, ok := any(o.defVal).(bool); ok {
		return b
	}
	return o.flagDefault
}

func (o *Opt[T]) doParse(c *Cli, val string) error {
	if o.parseFn != nil {
		return actionErr(c, o.parseFn(c, o, val))
	}
	if !o.parseDefault(val) {
		return c.badValue(&o.optBase, val, choicesDetail(c, &o.optBase))
	}
	return nil
}

func (o *Opt[T]) doChecks(c *Cli, val string) error {
	for _, fn := range o.checkFns {
		if err := fn(c, o, val); err != nil {
			return actionErr(c, err)
		}
	}
	return nil
}

func (o *Opt[T]) doAfters(c *Cli) error {
	if err := c.runPrompt(o); err != nil {
		return err
	}
	if o.required && !o.explicit {
		return c.badUsage("No value given for "+o.defName, "", "")
	}
	for _, fn := range o.afterFns {
		if err := fn(c, o); err != nil {
			return afterErr(c, &o.optBase, err)
		}
	}
	return nil
}

// Desc sets the option's help description.
func (o *Opt[T]) Desc(text string) *Opt[T] { o.desc = text; return o }

// ValueDesc sets the name shown for the option's value in help text.
func (o *Opt[T]) ValueDesc(text string) *Opt[T] { o.valueDesc = text; return o }

// DefaultDesc overrides how the default value is described in help
// text; the empty string suppresses the "(default: ...)" clause.
func (o *Opt[T]) DefaultDesc(text string) *Opt[T] { o.defaultDesc = &text; return o }

// Group moves the option to the named option group for help listings.
func (o *Opt[T]) Group(name string) *Opt[T] { o.group = name; return o }

// Command scopes the option to the named subcommand.
func (o *Opt[T]) Command(name string) *Opt[T] { o.command = name; return o }

// Show makes the option visible in help output (the default).
func (o *Opt[T]) Show() *Opt[T] { o.visible = true; return o }

// Hide removes the option from help output; it still parses.
func (o *Opt[T]) Hide() *Opt[T] { o.visible = false; return o }

// Require fails the parse when the option received no value.
func (o *Opt[T]) Require() *Opt[T] { o.required = true; return o }

// ImplicitValue sets the value stored when the option is named but no
// value is attached (only reachable with the "?" modifier).
func (o *Opt[T]) ImplicitValue(v T) *Opt[T] { o.implicit = v; return o }

// FlagValue makes a non-boolean option act like a flag: naming it
// assigns the option's default value instead of consuming a value
// token. With def true the flag is marked as the group's default in
// help output.
func (o *Opt[T]) FlagValue(def bool) *Opt[T] {
	o.flagValue = true
	o.flagDefault = def
	return o
}

// Choice restricts the option to an enumerated value. key is the text
// accepted on the command line, extras optionally carry a description
// and a sort key for help output.
func (o *Opt[T]) Choice(v T, key string, extras ...string) *Opt[T] {
	if o.choiceVals == nil {
		o.choiceVals = map[string]T{}
		o.choiceDescs = map[string]choiceDesc{}
	}
	cd := choiceDesc{pos: len(o.choiceOrder)}
	if len(extras) > 0 {
		cd.desc = extras[0]
	}
	if len(extras) > 1 {
		cd.sortKey = extras[1]
	}
	if _, dup := o.choiceVals[key]; !dup {
		o.choiceOrder = append(o.choiceOrder, key)
	}
	cd.def = renderEqual(v, o.defVal)
	o.choiceVals[key] = v
	o.choiceDescs[key] = cd
	return o
}

// Parser replaces the default string conversion for this option.
func (o *Opt[T]) Parser(fn func(c *Cli, o *Opt[T], val string) error) *Opt[T] {
	o.parseFn = fn
	return o
}

// Check adds a validation callback run after each value is parsed.
// Checks run in declaration order; the first failure aborts the parse.
func (o *Opt[T]) Check(fn func(c *Cli, o *Opt[T], val string) error) *Opt[T] {
	o.checkFns = append(o.checkFns, fn)
	return o
}

// After adds a callback run once after the whole command line has been
// parsed, in declaration order across all options.
func (o *Opt[T]) After(fn func(c *Cli, o *Opt[T]) error) *Opt[T] {
	o.afterFns = append(o.afterFns, fn)
	return o
}

// Prompt asks for a value interactively when none was supplied, using
// msg as the prompt text (or a capitalized form of the option name
// when empty).
func (o *Opt[T]) Prompt(msg string) *Opt[T] {
	o.promptEnable = true
	o.promptMsg = msg
	return o
}

// PromptWith is Prompt with explicit flags (hidden input, confirmation,
// suppressed default hint).
func (o *Opt[T]) PromptWith(msg string, flags PromptFlags) *Opt[T] {
	o.promptEnable = true
	o.promptMsg = msg
	o.promptFlags = flags
	return o
}

// OptVec is a multi-valued option bound to values of type T.
type OptVec[T any] struct {
	optBase
	vals []T

	parseFn  func(c *Cli, o *OptVec[T], val string) error
	checkFns []func(c *Cli, o *OptVec[T], val string) error
	afterFns []func(c *Cli, o *OptVec[T]) error

	choiceVals map[string]T
}

// NewOptVec declares a vector option on c. The default arity is one or
// more values; adjust with Size. The name pattern mini-language is the
// same as NewOpt's.
func NewOptVec[T any](c *Cli, names string) *OptVec[T] {
	o := &OptVec[T]{}
	var zero T
	_, o.boolOpt = any(zero).(bool)
	o.names = names
	o.vector = true
	o.minVec, o.maxVec = 1, -1
	o.visible = true
	o.group = c.group
	o.command = c.command
	o.valueDescAuto = typeValueDesc[T]()
	var ndx optIndex
	ndx.indexOpt(o)
	c.cfg.opts = append(c.cfg.opts, o)
	return o
}

// typeValueDesc picks the placeholder shown for an option's value in
// help text when no ValueDesc was provided.
func typeValueDesc[T any]() string {
	var zero T
	switch any(zero).(type) {
	case string:
		return "STRING"
	case bool:
		return ""
	case time.Duration:
		return "DURATION"
	case float32, float64:
		return "FLOAT"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "NUM"
	}
	return "VALUE"
}

// Values returns the values collected during the last parse.
func (o *OptVec[T]) Values() []T { return o.vals }

// Size bounds how many values the option accepts. max -1 means
// unbounded. Panics when the bounds are malformed.
func (o *OptVec[T]) Size(min, max int) *OptVec[T] {
	if min < 0 || (max != -1 && max < min) {
		panic("cliarg: bad vector size bounds")
	}
	o.minVec, o.maxVec = min, max
	return o
}

func (o *OptVec[T]) reset() {
	o.vals = o.vals[:0]
	o.explicit = false
	o.fromName = ""
}

func (o *OptVec[T]) size() int { return len(o.vals) }

func (o *OptVec[T]) parseDefault(val string) bool {
	var v T
	if o.choiceVals != nil {
		got, ok := o.choiceVals[val]
		if !ok {
			return false
		}
		v = got
	} else if !fromString(&v, val) {
		return false
	}
	o.vals = append(o.vals, v)
	return true
}

func (o *OptVec[T]) assignImplicit() {
	var v T
	o.vals = append(o.vals, v)
}

func (o *OptVec[T]) assignFlag(bool) { o.assignImplicit() }

func (o *OptVec[T]) defaultString() (string, bool) {
	if o.defaultDesc != nil {
		return *o.defaultDesc, *o.defaultDesc != ""
	}
	return "", false
}

func (o *OptVec[T]) defaultBool() bool { return false }

func (o *OptVec[T]) doParse(c *Cli, val string) error {
	if o.parseFn != nil {
		return actionErr(c, o.parseFn(c, o, val))
	}
	if !o.parseDefault(val) {
		return c.badValue(&o.optBase, val, choicesDetail(c, &o.optBase))
	}
	return nil
}

func (o *OptVec[T]) doChecks(c *Cli, val string) error {
	for _, fn := range o.checkFns {
		if err := fn(c, o, val); err != nil {
			return actionErr(c, err)
		}
	}
	return nil
}

func (o *OptVec[T]) doAfters(c *Cli) error {
	if o.required && !o.explicit {
		return c.badUsage("No value given for "+o.defName, "", "")
	}
	for _, fn := range o.afterFns {
		if err := fn(c, o); err != nil {
			return afterErr(c, &o.optBase, err)
		}
	}
	return nil
}

// Desc sets the option's help description.
func (o *OptVec[T]) Desc(text string) *OptVec[T] { o.desc = text; return o }

// ValueDesc sets the name shown for the option's value in help text.
func (o *OptVec[T]) ValueDesc(text string) *OptVec[T] { o.valueDesc = text; return o }

// Group moves the option to the named option group for help listings.
func (o *OptVec[T]) Group(name string) *OptVec[T] { o.group = name; return o }

// Command scopes the option to the named subcommand.
func (o *OptVec[T]) Command(name string) *OptVec[T] { o.command = name; return o }

// Show makes the option visible in help output (the default).
func (o *OptVec[T]) Show() *OptVec[T] { o.visible = true; return o }

// Hide removes the option from help output; it still parses.
func (o *OptVec[T]) Hide() *OptVec[T] { o.visible = false; return o }

// Require fails the parse when the option received no value.
func (o *OptVec[T]) Require() *OptVec[T] { o.required = true; return o }

// Choice restricts the option to an enumerated value.
func (o *OptVec[T]) Choice(v T, key string, extras ...string) *OptVec[T] {
	if o.choiceVals == nil {
		o.choiceVals = map[string]T{}
		o.choiceDescs = map[string]choiceDesc{}
	}
	cd := choiceDesc{pos: len(o.choiceOrder)}
	if len(extras) > 0 {
		cd.desc = extras[0]
	}
	if len(extras) > 1 {
		cd.sortKey = extras[1]
	}
	if _, dup := o.choiceVals[key]; !dup {
		o.choiceOrder = append(o.choiceOrder, key)
	}
	o.choiceVals[key] = v
	o.choiceDescs[key] = cd
	return o
}

// Parser replaces the default string conversion for this option.
func (o *OptVec[T]) Parser(fn func(c *Cli, o *OptVec[T], val string) error) *OptVec[T] {
	o.parseFn = fn
	return o
}

// Check adds a validation callback run after each value is parsed.
func (o *OptVec[T]) Check(fn func(c *Cli, o *OptVec[T], val string) error) *OptVec[T] {
	o.checkFns = append(o.checkFns, fn)
	return o
}

// After adds a callback run once after the whole command line has been
// parsed.
func (o *OptVec[T]) After(fn func(c *Cli, o *OptVec[T]) error) *OptVec[T] {
	o.afterFns = append(o.afterFns, fn)
	return o
}

// fromString converts raw text into the target type. Common types are
// converted directly; other types fall back to encoding.TextUnmarshaler
// and then fmt.Sscan.
func fromString[T any](target *T, val string) bool {
	switch p := any(target).(type) {
	case *string:
		*p = val
		return true
	case *bool:
		b, err := strconv.ParseBool(val)
		if err != nil {
			// The engine hands bool options "0" or "1" only, but a
			// custom Parser may call back in with user text.
			return false
		}
		*p = b
		return true
	case *int:
		n, err := strconv.ParseInt(val, 0, strconv.IntSize)
		if err != nil {
			return false
		}
		*p = int(n)
		return true
	case *int8:
		n, err := strconv.ParseInt(val, 0, 8)
		if err != nil {
			return false
		}
		*p = int8(n)
		return true
	case *int16:
		n, err := strconv.ParseInt(val, 0, 16)
		if err != nil {
			return false
		}
		*p = int16(n)
		return true
	case *int32:
		n, err := strconv.ParseInt(val, 0, 32)
		if err != nil {
			return false
		}
		*p = int32(n)
		return true
	case *int64:
		n, err := strconv.ParseInt(val, 0, 64)
		if err != nil {
			return false
		}
		*p = n
		return true
	case *uint:
		n, err := strconv.ParseUint(val, 0, strconv.IntSize)
		if err != nil {
			return false
		}
		*p = uint(n)
		return true
	case *uint8:
		n, err := strconv.ParseUint(val, 0, 8)
		if err != nil {
			return false
		}
		*p = uint8(n)
		return true
	case *uint16:
		n, err := strconv.ParseUint(val, 0, 16)
		if err != nil {
			return false
		}
		*p = uint16(n)
		return true
	case *uint32:
		n, err := strconv.ParseUint(val, 0, 32)
		if err != nil {
			return false
		}
		*p = uint32(n)
		return true
	case *uint64:
		n, err := strconv.ParseUint(val, 0, 64)
		if err != nil {
			return false
		}
		*p = n
		return true
	case *float32:
		f, err := strconv.ParseFloat(val, 32)
		if err != nil {
			return false
		}
		*p = float32(f)
		return true
	case *float64:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return false
		}
		*p = f
		return true
	case *time.Duration:
		d, err := time.ParseDuration(val)
		if err != nil {
			return false
		}
		*p = d
		return true
	case encoding.TextUnmarshaler:
		return p.UnmarshalText([]byte(val)) == nil
	}
	_, err := fmt.Sscan(val, target)
	return err == nil
}

// renderDefault formats a default value for help text. Zero strings
// and booleans render as "not shown".
func renderDefault[T any](v T) (string, bool) {
	switch t := any(v).(type) {
	case string:
		return t, t != ""
	case bool:
		return "", false
	}
	s := fmt.Sprint(v)
	return s, s != ""
}

func renderEqual[T any](a, b T) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}
