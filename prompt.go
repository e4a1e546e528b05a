package cliarg

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/term"
)

// runPrompt asks the console for the option's value when prompting was
// requested and no value arrived on the command line.
func (c *Cli) runPrompt(o option) error {
	b := o.base()
	if !b.promptEnable || b.fromName != "" {
		return nil
	}
	return c.promptFor(o, b.promptMsg, b.promptFlags)
}

func (c *Cli) promptFor(o option, msg string, flags PromptFlags) error {
	b := o.base()
	var sb strings.Builder
	if msg == "" {
		sb.WriteString(b.defaultPrompt())
	} else {
		sb.WriteString(msg)
	}
	defAdded := false
	if flags&PromptNoDefault == 0 {
		if b.boolLike() {
			defAdded = true
			def := false
			if !b.flagValue {
				def = o.defaultBool()
			}
			if def {
				sb.WriteString(" [Y/n]:")
			} else {
				sb.WriteString(" [y/N]:")
			}
		} else if s, ok := o.defaultString(); ok && s != "" {
			defAdded = true
			sb.WriteString(" [" + s + "]:")
		}
	}
	if !defAdded && msg == "" {
		sb.WriteString(":")
	}
	sb.WriteString(" ")
	prompt := sb.String()

	hide := flags&PromptHide != 0
	val, err := c.readConsole(prompt, hide)
	if err != nil {
		return c.Fail(ExitSoftware, "Prompt failed.", err.Error())
	}
	if flags&PromptConfirm != 0 {
		again, err := c.readConsole("Enter again to confirm: ", hide)
		if err != nil {
			return c.Fail(ExitSoftware, "Prompt failed.", err.Error())
		}
		if val != again {
			return c.badUsage("Confirm failed, entries not the same.", "", "")
		}
	}
	if b.boolLike() {
		// Boolean conversions only ever see "0" or "1".
		if len(val) > 0 && (val[0] == 'y' || val[0] == 'Y') {
			val = "1"
		} else {
			val = "0"
		}
	} else if val == "" {
		if _, ok := o.defaultString(); ok {
			// An empty answer accepts the offered default.
			return nil
		}
	}
	return c.parseValue(o, b.defName, 0, &val)
}

// readConsole reads one line of input, using hidden input or line
// editing when the input stream is an interactive terminal.
func (c *Cli) readConsole(prompt string, hide bool) (string, error) {
	in, out := c.cfg.conin, c.cfg.conout
	fd, isTerm := consoleFd(in)
	if isTerm && hide {
		fmt.Fprint(out, prompt)
		pw, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("read hidden value: %w", err)
		}
		return string(pw), nil
	}
	if isTerm {
		cfg := &readline.Config{
			Prompt: prompt,
			Stdout: out,
			Stderr: c.cfg.conerr,
		}
		if rc, ok := in.(io.ReadCloser); ok {
			cfg.Stdin = rc
		} else {
			cfg.Stdin = io.NopCloser(in)
		}
		if rl, err := readline.NewEx(cfg); err == nil {
			defer rl.Close()
			line, err := rl.Readline()
			if err == readline.ErrInterrupt || err == io.EOF {
				return "", nil
			}
			if err != nil {
				return "", fmt.Errorf("read value: %w", err)
			}
			return line, nil
		}
		// Fall back to a plain read when line editing cannot start.
	}
	fmt.Fprint(out, prompt)
	line, err := c.cfg.lineReader().ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		if err == io.EOF {
			return "", nil
		}
		return "", fmt.Errorf("read value: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func consoleFd(r io.Reader) (int, bool) {
	f, ok := r.(interface{ Fd() uintptr })
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}
