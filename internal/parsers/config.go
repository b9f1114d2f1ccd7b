package parsers

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// ParseConfig holds configuration for CSV parsing
type ParseConfig struct {
	// Delimiter is the field separator. Zero means sniff it from the header line.
	Delimiter        rune
	Comment          rune
	TrimLeadingSpace bool
	SkipEmptyRows    bool
	// Encoding names the file's character set: utf-8, windows-1254 or iso-8859-9
	Encoding       string
	MaxFieldSize   int
	ValidateHeader bool
}

// DefaultParseConfig returns a configuration with sensible defaults
func DefaultParseConfig() *ParseConfig {
	return &ParseConfig{
		Delimiter:        0,
		TrimLeadingSpace: true,
		SkipEmptyRows:    true,
		Encoding:         "utf-8",
		MaxFieldSize:     1000000,
		ValidateHeader:   true,
	}
}

// Validate checks the parse configuration
func (c *ParseConfig) Validate() error {
	if _, err := lookupEncoding(c.Encoding); err != nil {
		return err
	}
	switch c.Delimiter {
	case 0, ',', ';', '\t', '|':
	default:
		return fmt.Errorf("unsupported delimiter %q", c.Delimiter)
	}
	if c.MaxFieldSize < 0 {
		return fmt.Errorf("max field size cannot be negative, got %d", c.MaxFieldSize)
	}
	return nil
}

// ParseDelimiter converts a flag value such as ";" or "tab" to a rune
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return 0, nil
	case ",", "comma":
		return ',', nil
	case ";", "semicolon":
		return ';', nil
	case "\t", "tab", `\t`:
		return '\t', nil
	case "|", "pipe":
		return '|', nil
	default:
		return 0, fmt.Errorf("unsupported delimiter %q", s)
	}
}

// lookupEncoding maps an encoding name to a decoder. UTF-8 input has its
// byte order mark stripped.
func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return unicode.UTF8BOM, nil
	case "windows-1254", "cp1254":
		return charmap.Windows1254, nil
	case "iso-8859-9", "latin5":
		return charmap.ISO8859_9, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}
