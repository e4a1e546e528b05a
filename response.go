package cliarg

import (
	"os"
	"path/filepath"

	"golang.org/x/text/encoding/unicode"

	"github.com/sasanktumpati/cliarg/argv"
)

// loadResponseFile reads fn and normalizes its content to UTF-8. Files
// starting with a UTF-16 little endian byte order mark are transcoded,
// a UTF-8 byte order mark is stripped. A non-empty errDesc describes
// the failure.
func loadResponseFile(fn string) (content, errDesc string) {
	raw, err := os.ReadFile(fn)
	if err != nil {
		return "", "Read error"
	}
	if len(raw) >= 2 && raw[0] == 0xff && raw[1] == 0xfe {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
		out, err := dec.Bytes(raw)
		if err != nil {
			return "", "Invalid encoding"
		}
		raw = out
	} else if len(raw) >= 3 && raw[0] == 0xef && raw[1] == 0xbb && raw[2] == 0xbf {
		raw = raw[3:]
	}
	return string(raw), ""
}

// expandResponseFiles replaces every "@file" argument with the
// arguments tokenized from that file, recursively. File references are
// resolved relative to the file that contains them.
func expandResponseFiles(c *Cli, args []string) ([]string, error) {
	var ancestors []string
	return expandResponseArgs(c, args, &ancestors)
}

func expandResponseArgs(c *Cli, args []string, ancestors *[]string) ([]string, error) {
	for pos := 0; pos < len(args); pos++ {
		if len(args[pos]) == 0 || args[pos][0] != '@' {
			continue
		}
		rargs, err := expandResponseFile(c, args[pos][1:], ancestors)
		if err != nil {
			return nil, err
		}
		args = append(args[:pos:pos], append(rargs, args[pos+1:]...)...)
		pos += len(rargs) - 1
	}
	return args, nil
}

// ancestors holds the canonical paths of the response files the
// current args came from, outermost first, to detect cycles.
func expandResponseFile(c *Cli, fn string, ancestors *[]string) ([]string, error) {
	cfn := fn
	if n := len(*ancestors); n > 0 && !filepath.IsAbs(cfn) {
		cfn = filepath.Join(filepath.Dir((*ancestors)[n-1]), fn)
	}
	cfn, err := filepath.Abs(cfn)
	if err == nil {
		cfn, err = filepath.EvalSymlinks(cfn)
	}
	if err != nil {
		return nil, c.badUsage("Invalid response file", fn, "")
	}
	for _, a := range *ancestors {
		if a == cfn {
			return nil, c.badUsage("Recursive response file", fn, "")
		}
	}
	*ancestors = append(*ancestors, cfn)
	content, errDesc := loadResponseFile(cfn)
	if errDesc != "" {
		return nil, c.badUsage(errDesc, fn, "")
	}
	rargs, err := expandResponseArgs(c, argv.Split(content), ancestors)
	if err != nil {
		return nil, err
	}
	*ancestors = (*ancestors)[:len(*ancestors)-1]
	return rargs, nil
}
