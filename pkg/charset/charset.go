// Package charset converts skeleton and bone names between the raw bytes
// stored in binary files and UTF-8 text.
package charset

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// Charset errors.
var (
	ErrUnknownCharset = errors.New("unknown charset")
	ErrNotReversible  = errors.New("name does not survive charset round-trip")
)

// Codec transcodes names. A nil Codec passes bytes through unchanged.
type Codec struct {
	name string
	enc  encoding.Encoding
}

// Raw is the passthrough codec.
var Raw *Codec

// aliases common in game modding tools that htmlindex spells differently.
var aliases = map[string]encoding.Encoding{
	"euc-kr":    korean.EUCKR,
	"cp949":     korean.EUCKR,
	"shift-jis": japanese.ShiftJIS,
	"sjis":      japanese.ShiftJIS,
	"cp932":     japanese.ShiftJIS,
	"cp1252":    charmap.Windows1252,
	"cp1251":    charmap.Windows1251,
	"latin1":    charmap.ISO8859_1,
}

// Lookup returns the codec for a charset name. "" and "raw" select the
// passthrough codec.
func Lookup(name string) (*Codec, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || key == "raw" {
		return Raw, nil
	}
	if enc, ok := aliases[key]; ok {
		return &Codec{name: key, enc: enc}, nil
	}
	enc, err := htmlindex.Get(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCharset, name)
	}
	return &Codec{name: key, enc: enc}, nil
}

// Name returns the charset name, "raw" for passthrough.
func (c *Codec) Name() string {
	if c == nil {
		return "raw"
	}
	return c.name
}

// ToText converts raw name bytes to UTF-8. It fails if converting back would
// not reproduce the original bytes.
func (c *Codec) ToText(raw string) (string, error) {
	if c == nil {
		return raw, nil
	}
	text, _, err := transform.String(c.enc.NewDecoder(), raw)
	if err != nil {
		return "", fmt.Errorf("decoding %s name: %w", c.name, err)
	}
	back, _, err := transform.String(c.enc.NewEncoder(), text)
	if err != nil || back != raw {
		return "", fmt.Errorf("%w: %q as %s", ErrNotReversible, raw, c.name)
	}
	return text, nil
}

// FromText converts a UTF-8 name to raw bytes in the codec's charset.
func (c *Codec) FromText(text string) (string, error) {
	if c == nil {
		return text, nil
	}
	raw, _, err := transform.String(c.enc.NewEncoder(), text)
	if err != nil {
		return "", fmt.Errorf("encoding %s name: %w", c.name, err)
	}
	return raw, nil
}
