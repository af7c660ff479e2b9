package fbsql

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Charset is the character set text columns are transcoded with. A nil
// encoding passes bytes through unchanged.
type Charset struct {
	Name string
	enc  encoding.Encoding
}

var charsets = map[string]encoding.Encoding{
	"NONE":        nil,
	"OCTETS":      nil,
	"ASCII":       nil,
	"UTF8":        nil,
	"UNICODE_FSS": nil,
	"ISO8859_1":   charmap.ISO8859_1,
	"ISO8859_2":   charmap.ISO8859_2,
	"ISO8859_3":   charmap.ISO8859_3,
	"ISO8859_4":   charmap.ISO8859_4,
	"ISO8859_5":   charmap.ISO8859_5,
	"ISO8859_6":   charmap.ISO8859_6,
	"ISO8859_7":   charmap.ISO8859_7,
	"ISO8859_8":   charmap.ISO8859_8,
	"ISO8859_9":   charmap.ISO8859_9,
	"ISO8859_13":  charmap.ISO8859_13,
	"WIN1250":     charmap.Windows1250,
	"WIN1251":     charmap.Windows1251,
	"WIN1252":     charmap.Windows1252,
	"WIN1253":     charmap.Windows1253,
	"WIN1254":     charmap.Windows1254,
	"WIN1255":     charmap.Windows1255,
	"WIN1256":     charmap.Windows1256,
	"WIN1257":     charmap.Windows1257,
	"WIN1258":     charmap.Windows1258,
	"DOS437":      charmap.CodePage437,
	"DOS850":      charmap.CodePage850,
	"DOS852":      charmap.CodePage852,
	"DOS866":      charmap.CodePage866,
	"KOI8R":       charmap.KOI8R,
	"KOI8U":       charmap.KOI8U,
}

// LookupCharset returns the character set with the given engine name.
func LookupCharset(name string) (Charset, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		name = "UTF8"
	}

	enc, ok := charsets[name]
	if !ok {
		return Charset{}, fmt.Errorf("unknown character set %q", name)
	}

	return Charset{Name: name, enc: enc}, nil
}

func (c Charset) decode(b []byte) (string, error) {
	if c.enc == nil {
		return string(b), nil
	}
	return c.enc.NewDecoder().String(string(b))
}

func (c Charset) encode(s string) ([]byte, error) {
	if c.enc == nil {
		return []byte(s), nil
	}
	return c.enc.NewEncoder().Bytes([]byte(s))
}
