// Package cliarg declares command-line options, parses argument
// vectors into typed values, dispatches subcommand actions, and
// renders help text.
//
// A Cli handle wraps a configuration store. Clone copies a handle that
// shares the same store, so option declarations can be split across
// files; New starts an independent store. Handles are not safe for
// concurrent use without external synchronization.
package cliarg

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// Process exit codes reported through Error.Code, following sysexits.
const (
	ExitOk       = 0  // success
	ExitUsage    = 64 // bad arguments on the command line
	ExitSoftware = 70 // internal error in the hosting program's wiring
)

// Name of the group holding --help, --version, and friends.
const internalOptionGroup = "~"

// Error is the structured outcome of a failed parse or exec. A Code of
// ExitOk signals an intentional early stop (for example --help) rather
// than a failure.
type Error struct {
	Code   int
	Msg    string
	Detail string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Msg
}

// ActionFn is a command action, invoked by Exec after a successful
// parse.
type ActionFn func(c *Cli) error

// BeforeFn runs before tokens are classified and may rewrite the
// argument vector (args includes the program name at index 0).
type BeforeFn func(c *Cli, args []string) ([]string, error)

type groupConfig struct {
	name    string
	title   string
	sortKey string
}

type commandConfig struct {
	name     string
	header   string
	desc     string
	footer   string
	action   ActionFn
	cmdGroup string
	helpOpt  *Opt[bool]
	groups   map[string]*groupConfig
}

// config is the shared store behind a family of cloned handles.
type config struct {
	befores      []BeforeFn
	allowUnknown bool
	unknownCmd   ActionFn
	cmds         map[string]*commandConfig
	cmdGroups    map[string]*groupConfig
	opts         []option

	responseFiles bool
	envOpts       string
	conin         io.Reader
	conbuf        *bufio.Reader
	conbufSrc     io.Reader
	conout        io.Writer
	conerr        io.Writer
	helpMarkdown  bool

	exitCode    int
	errMsg      string
	errDetail   string
	progName    string
	command     string
	unknownArgs []string

	maxWidth     int
	minDescCol   int
	maxDescCol   int
	maxLineWidth int
}

const (
	defaultConsoleWidth = 80
	minConsoleWidth     = 50
	maxConsoleWidth     = 80

	// Column range where option description text starts.
	defaultMinDescCol = 11
	defaultMaxDescCol = 28
)

// lineReader wraps the console input in a buffer that survives across
// reads, so a prompt and its confirmation share buffered bytes.
func (cfg *config) lineReader() *bufio.Reader {
	if cfg.conbuf == nil || cfg.conbufSrc != cfg.conin {
		cfg.conbuf = bufio.NewReader(cfg.conin)
		cfg.conbufSrc = cfg.conin
	}
	return cfg.conbuf
}

func (cfg *config) updateWidth(width int) {
	cfg.maxWidth = width
	cfg.maxLineWidth = width - 1
	cfg.minDescCol = defaultMinDescCol * (defaultConsoleWidth + width) / 2 / defaultConsoleWidth
	cfg.maxDescCol = defaultMaxDescCol * width / defaultConsoleWidth
}

// Cli is a handle to a configuration store plus the current command
// and option-group context used by subsequent declarations.
type Cli struct {
	cfg     *config
	group   string
	command string
}

// New creates a handle with a fresh, independent configuration store.
func New() *Cli {
	cfg := &config{
		cmds:          map[string]*commandConfig{},
		cmdGroups:     map[string]*groupConfig{},
		responseFiles: true,
		conin:         os.Stdin,
		conout:        os.Stdout,
		conerr:        os.Stderr,
	}
	width := min(max(consoleWidth(os.Stdout), minConsoleWidth), maxConsoleWidth)
	cfg.updateWidth(width)
	c := &Cli{cfg: cfg}
	c.HelpOpt()
	return c
}

// Clone returns a handle sharing c's configuration store, preserving
// the current command and group context.
func (c *Cli) Clone() *Cli {
	return &Cli{cfg: c.cfg, group: c.group, command: c.command}
}

func findCmdAlways(c *Cli, name string) *commandConfig {
	if cmd, ok := c.cfg.cmds[name]; ok {
		return cmd
	}
	cmd := &commandConfig{
		name:     name,
		action:   defCmdAction,
		cmdGroup: c.cmdGroupOf(),
		groups:   map[string]*groupConfig{},
	}
	c.cfg.cmds[name] = cmd
	defGrp := findGrpAlways(cmd, "")
	defGrp.title = "Options"
	intGrp := findGrpAlways(cmd, internalOptionGroup)
	intGrp.title = ""
	hlp := NewOpt[bool](c, "help.", false).
		Desc("Show this message and exit.").
		Check(helpOptAction).
		Command(name).
		Group(internalOptionGroup)
	cmd.helpOpt = hlp
	return cmd
}

func (c *Cli) cmdGroupOf() string {
	if cmd, ok := c.cfg.cmds[c.command]; ok {
		return cmd.cmdGroup
	}
	return ""
}

func findCmdGrpAlways(c *Cli, name string) *groupConfig {
	if grp, ok := c.cfg.cmdGroups[name]; ok {
		return grp
	}
	grp := &groupConfig{name: name, sortKey: name}
	switch name {
	case "":
		grp.title = "Commands"
	case internalOptionGroup:
		grp.title = ""
	default:
		grp.title = name
	}
	c.cfg.cmdGroups[name] = grp
	return grp
}

func findGrpAlways(cmd *commandConfig, name string) *groupConfig {
	if grp, ok := cmd.groups[name]; ok {
		return grp
	}
	grp := &groupConfig{name: name, title: name, sortKey: name}
	cmd.groups[name] = grp
	return grp
}

// touchAllCmds makes sure every option has a backing command config and
// every command a backing command group.
func touchAllCmds(c *Cli) {
	for _, o := range c.cfg.opts {
		findCmdAlways(c, o.base().command)
	}
	for _, cmd := range c.cfg.cmds {
		findCmdGrpAlways(c, cmd.cmdGroup)
	}
}

// Command switches the handle's declaration context to the named
// subcommand, creating it on first reference.
func (c *Cli) Command(name string) *Cli {
	findCmdAlways(c, name)
	c.command = name
	c.group = ""
	return c
}

// Group switches the handle's declaration context to the named option
// group within the current command.
func (c *Cli) Group(name string) *Cli {
	c.group = name
	findGrpAlways(findCmdAlways(c, c.command), name)
	return c
}

// Title sets the help heading of the current option group.
func (c *Cli) Title(val string) *Cli {
	findGrpAlways(findCmdAlways(c, c.command), c.group).title = val
	return c
}

// SortKey orders the current option group relative to its siblings.
func (c *Cli) SortKey(val string) *Cli {
	findGrpAlways(findCmdAlways(c, c.command), c.group).sortKey = val
	return c
}

// Action sets the callback Exec invokes when the current command is
// matched.
func (c *Cli) Action(fn ActionFn) *Cli {
	findCmdAlways(c, c.command).action = fn
	return c
}

// Header sets the text printed above the usage line in help output.
func (c *Cli) Header(val string) *Cli {
	findCmdAlways(c, c.command).header = val
	return c
}

// Desc sets the description printed below the usage line.
func (c *Cli) Desc(val string) *Cli {
	findCmdAlways(c, c.command).desc = val
	return c
}

// Footer sets the text printed at the bottom of help output.
func (c *Cli) Footer(val string) *Cli {
	findCmdAlways(c, c.command).footer = val
	return c
}

// CmdGroup assigns the current command to a command group for help
// listings.
func (c *Cli) CmdGroup(name string) *Cli {
	findCmdAlways(c, c.command).cmdGroup = name
	findCmdGrpAlways(c, name)
	return c
}

// CmdTitle sets the help heading of the current command's group.
func (c *Cli) CmdTitle(val string) *Cli {
	findCmdGrpAlways(c, c.cmdGroupOf()).title = val
	return c
}

// CmdSortKey orders the current command's group relative to its
// siblings.
func (c *Cli) CmdSortKey(val string) *Cli {
	findCmdGrpAlways(c, c.cmdGroupOf()).sortKey = val
	return c
}

// Before registers a callback that may rewrite the argument vector
// before parsing.
func (c *Cli) Before(fn BeforeFn) *Cli {
	c.cfg.befores = append(c.cfg.befores, fn)
	return c
}

// UnknownCmd allows unmatched command names: instead of failing the
// parse, remaining arguments are collected verbatim (UnknownArgs) and
// Exec invokes fn.
func (c *Cli) UnknownCmd(fn ActionFn) *Cli {
	c.cfg.allowUnknown = true
	c.cfg.unknownCmd = fn
	return c
}

// HelpNoArgs treats an empty command line as a request for help.
func (c *Cli) HelpNoArgs() *Cli {
	return c.Before(func(_ *Cli, args []string) ([]string, error) {
		if len(args) == 1 {
			args = append(args, "--help")
		}
		return args, nil
	})
}

// EnvOpts splices arguments tokenized from the named environment
// variable in front of the command-line arguments.
func (c *Cli) EnvOpts(name string) *Cli {
	c.cfg.envOpts = name
	return c
}

// ResponseFiles toggles @file argument expansion (enabled by default).
func (c *Cli) ResponseFiles(enable bool) *Cli {
	c.cfg.responseFiles = enable
	return c
}

// HelpMarkdown renders command header, description, and footer text as
// terminal markdown when help is written to a terminal.
func (c *Cli) HelpMarkdown(enable bool) *Cli {
	c.cfg.helpMarkdown = enable
	return c
}

// Streams redirects the console streams used for prompting, help, and
// error reporting. Nil arguments keep the current stream.
func (c *Cli) Streams(in io.Reader, out, errOut io.Writer) *Cli {
	if in != nil {
		c.cfg.conin = in
	}
	if out != nil {
		c.cfg.conout = out
	}
	if errOut != nil {
		c.cfg.conerr = errOut
	}
	return c
}

// SetMaxWidth overrides the detected console width used to wrap help
// text. Optional descCols override the minimum and maximum columns
// where description text starts.
func (c *Cli) SetMaxWidth(width int, descCols ...int) *Cli {
	c.cfg.updateWidth(width)
	if len(descCols) > 0 && descCols[0] > 0 {
		c.cfg.minDescCol = descCols[0]
	}
	if len(descCols) > 1 && descCols[1] > 0 {
		c.cfg.maxDescCol = descCols[1]
	}
	return c
}

// Conin returns the configured console input stream.
func (c *Cli) Conin() io.Reader { return c.cfg.conin }

// Conout returns the configured console output stream.
func (c *Cli) Conout() io.Writer { return c.cfg.conout }

// Conerr returns the configured console error stream.
func (c *Cli) Conerr() io.Writer { return c.cfg.conerr }

// ExitCode returns the exit code recorded by the last parse or exec.
func (c *Cli) ExitCode() int { return c.cfg.exitCode }

// ErrMsg returns the message recorded by the last failure.
func (c *Cli) ErrMsg() string { return c.cfg.errMsg }

// ErrDetail returns the supplemental detail recorded by the last
// failure, if any.
func (c *Cli) ErrDetail() string { return c.cfg.errDetail }

// ProgName returns argument zero of the last parse.
func (c *Cli) ProgName() string { return c.cfg.progName }

// CommandMatched returns the subcommand resolved by the last parse, or
// the empty string for the top-level command.
func (c *Cli) CommandMatched() string { return c.cfg.command }

// UnknownArgs returns the arguments captured after an unmatched
// command name when UnknownCmd passthrough is enabled.
func (c *Cli) UnknownArgs() []string { return c.cfg.unknownArgs }

// CommandExists reports whether name was declared as a command.
func (c *Cli) CommandExists(name string) bool {
	_, ok := c.cfg.cmds[name]
	return ok
}

// Fail records a structured failure and returns it. Actions use it to
// set the exit code and message reported to the caller.
func (c *Cli) Fail(code int, msg string, detail ...string) *Error {
	c.cfg.exitCode = code
	c.cfg.errMsg = msg
	c.cfg.errDetail = ""
	if len(detail) > 0 {
		c.cfg.errDetail = detail[0]
	}
	return &Error{Code: code, Msg: msg, Detail: c.cfg.errDetail}
}

// BadUsage records a usage error. The optional value is appended to
// the message after a colon; a second optional string becomes the
// error detail.
func (c *Cli) BadUsage(msg string, valueDetail ...string) *Error {
	value, detail := "", ""
	if len(valueDetail) > 0 {
		value = valueDetail[0]
	}
	if len(valueDetail) > 1 {
		detail = valueDetail[1]
	}
	return c.badUsage(msg, value, detail)
}

func (c *Cli) badUsage(prefix, value, detail string) *Error {
	out := ""
	if cmd := c.CommandMatched(); cmd != "" {
		out = "Command '" + cmd + "': "
	}
	out += prefix
	if value != "" {
		out += ": " + value
	}
	return c.Fail(ExitUsage, out, detail)
}

func (c *Cli) badValue(b *optBase, value, detail string) *Error {
	return c.badUsage("Invalid '"+b.fromName+"' value", value, detail)
}

// actionErr normalizes an error returned by a parse or check action:
// structured errors pass through, anything else becomes a usage error.
func actionErr(c *Cli, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return c.badUsage(err.Error(), "", "")
}

// afterErr normalizes an error returned by an after action. An action
// that failed without recording why is a bug in the hosting program.
func afterErr(c *Cli, b *optBase, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if c.cfg.exitCode != ExitOk {
		return &Error{Code: c.cfg.exitCode, Msg: c.cfg.errMsg, Detail: c.cfg.errDetail}
	}
	return c.Fail(
		ExitSoftware,
		"Option '"+b.defName+"' failed without setting exit code.",
		err.Error(),
	)
}

func defCmdAction(c *Cli) error {
	if c.CommandMatched() == "" {
		return c.Fail(ExitUsage, "No command given.")
	}
	return c.Fail(
		ExitSoftware,
		"Command '"+c.CommandMatched()+"' has not been implemented.",
	)
}

func helpOptAction(c *Cli, o *Opt[bool], _ string) error {
	if o.Value() {
		c.WriteHelp(c.Conout(), "", c.CommandMatched())
		return c.Fail(ExitOk, "")
	}
	return nil
}

// HelpOpt returns the automatic --help option of the current command,
// so its description or grouping can be adjusted.
func (c *Cli) HelpOpt() *Opt[bool] {
	return findCmdAlways(c, c.command).helpOpt
}

// VersionOpt declares a --version option that prints "prog version
// <version>" and stops the parse.
func (c *Cli) VersionOpt(version string, progName ...string) *Opt[bool] {
	prog := ""
	if len(progName) > 0 {
		prog = progName[0]
	}
	return NewOpt[bool](c, "version.", false).
		Desc("Show version and exit.").
		Group(internalOptionGroup).
		Check(func(c *Cli, o *Opt[bool], _ string) error {
			if !o.Value() {
				return nil
			}
			name := prog
			if name == "" {
				name = displayName(c.ProgName())
			}
			fmt.Fprintf(c.Conout(), "%s version %s\n", name, version)
			return c.Fail(ExitOk, "")
		})
}

// ConfirmOpt declares a -y, --yes option that prompts "Are you sure?"
// (or the given prompt) when not supplied, and stops with ExitOk when
// the answer is no.
func (c *Cli) ConfirmOpt(prompt ...string) *Opt[bool] {
	msg := "Are you sure?"
	if len(prompt) > 0 && prompt[0] != "" {
		msg = prompt[0]
	}
	return NewOpt[bool](c, "y yes", false).
		Desc("Suppress prompting to allow execution.").
		Check(func(c *Cli, o *Opt[bool], _ string) error {
			if !o.Value() {
				return c.Fail(ExitOk, "")
			}
			return nil
		}).
		Prompt(msg)
}

// PasswordOpt declares a --password option prompting with hidden echo
// when no value was given. With confirm the password must be typed
// twice.
func (c *Cli) PasswordOpt(confirm bool) *Opt[string] {
	flags := PromptHide | PromptNoDefault
	if confirm {
		flags |= PromptConfirm
	}
	return NewOpt[string](c, "password.", "").
		Desc("Password required for access.").
		PromptWith("", flags)
}

// HelpCmd declares a "help [command]" subcommand mirroring --help.
func (c *Cli) HelpCmd() *Cli {
	// Use a clone so the handle's current command context survives.
	h := c.Clone()
	h.Command("help").
		CmdGroup(internalOptionGroup).
		Desc("Show help for individual commands and exit. If no command is " +
			"given the list of commands and general options are shown.").
		Action(helpCmdAction)
	NewOpt[string](h, "[command]", "").
		Desc("Command to show help information about.")
	NewOpt[bool](h, "u usage", false).
		Desc("Only show condensed usage.")
	return c
}

func helpCmdAction(c *Cli) error {
	var ndx optIndex
	ndx.index(c, c.CommandMatched(), false)
	cmd := ndx.argNames[0].opt.(*Opt[string]).Value()
	usage := ndx.shortNames['u'].opt.(*Opt[bool]).Value()
	if !c.CommandExists(cmd) {
		return c.badUsage("Help requested for unknown command", cmd, "")
	}
	if usage {
		c.WriteUsageEx(c.Conout(), "", cmd)
	} else {
		c.WriteHelp(c.Conout(), "", cmd)
	}
	return nil
}

// Exec invokes the action of the command resolved by the last parse.
func (c *Cli) Exec() error {
	name := c.CommandMatched()
	var action ActionFn
	if cmd, ok := c.cfg.cmds[name]; ok {
		action = cmd.action
	} else {
		action = c.cfg.unknownCmd
	}
	if action == nil {
		// Most likely parse failed, never ran, or the store was reset.
		return c.Fail(
			ExitSoftware,
			"Command '"+name+"' found by parse not defined.",
		)
	}
	if err := action(c); err != nil {
		var e *Error
		if errors.As(err, &e) {
			return e
		}
		if c.cfg.exitCode != ExitOk {
			return &Error{Code: c.cfg.exitCode, Msg: c.cfg.errMsg, Detail: c.cfg.errDetail}
		}
		return c.Fail(
			ExitSoftware,
			"Command '"+name+"' failed without setting exit code.",
			err.Error(),
		)
	}
	return nil
}

// Run parses args (the full vector including the program name),
// executes the matched command, prints any failure to the error
// stream, and returns the process exit code.
func (c *Cli) Run(args []string) int {
	if err := c.Parse(args); err != nil {
		return c.PrintError(c.Conerr())
	}
	if err := c.Exec(); err != nil {
		return c.PrintError(c.Conerr())
	}
	return ExitOk
}
