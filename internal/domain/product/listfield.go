package product

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// List fields survived several storefront generations: the oldest rows hold
// comma or semicolon delimited strings, later ones JSON arrays encoded into
// a string, current ones native JSON arrays. StringList and ColorList accept
// all three shapes and always expose a canonical slice.

// StringList is a normalized list field (tags, sizes, highlights, images).
type StringList []string

// UnmarshalJSON accepts a JSON array, a JSON-encoded array in a string, or a
// delimited string.
func (l *StringList) UnmarshalJSON(data []byte) error {
	vals, err := decodeStrings(jx.DecodeBytes(data))
	if err != nil {
		return err
	}
	*l = vals
	return nil
}

// MarshalJSON always emits a JSON array, never null.
func (l StringList) MarshalJSON() ([]byte, error) {
	e := &jx.Encoder{}
	e.ArrStart()
	for _, s := range l {
		e.Str(s)
	}
	e.ArrEnd()
	return e.Bytes(), nil
}

// Encode returns the canonical storage form.
func (l StringList) Encode() string {
	b, _ := l.MarshalJSON()
	return string(b)
}

// ParseStringList normalizes a raw column value.
func ParseStringList(raw string) StringList {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if vals, err := decodeStrings(jx.DecodeStr(raw)); err == nil {
		return vals
	}
	return splitDelimited(raw)
}

func decodeStrings(d *jx.Decoder) ([]string, error) {
	switch d.Next() {
	case jx.Array:
		var out []string
		err := d.Arr(func(d *jx.Decoder) error {
			s, err := d.Str()
			if err != nil {
				return err
			}
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
			return nil
		})
		return out, err
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return nil, err
		}
		return ParseStringList(s), nil
	case jx.Null:
		return nil, d.Null()
	default:
		return nil, errors.Errorf("unsupported list shape: %v", d.Next())
	}
}

func splitDelimited(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';'
	})
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Color is a display color offered for a product.
type Color struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

// ColorList is a normalized list of colors. Elements are accepted as
// {name, hex} objects, as JSON-object strings inside an array, or as
// delimited "Name:#hex" pairs.
type ColorList []Color

// UnmarshalJSON accepts the same three outer shapes as StringList.
func (l *ColorList) UnmarshalJSON(data []byte) error {
	vals, err := decodeColors(jx.DecodeBytes(data))
	if err != nil {
		return err
	}
	*l = vals
	return nil
}

// MarshalJSON always emits a JSON array of {name, hex} objects, never null.
func (l ColorList) MarshalJSON() ([]byte, error) {
	e := &jx.Encoder{}
	e.ArrStart()
	for _, c := range l {
		e.ObjStart()
		e.FieldStart("name")
		e.Str(c.Name)
		e.FieldStart("hex")
		e.Str(c.Hex)
		e.ObjEnd()
	}
	e.ArrEnd()
	return e.Bytes(), nil
}

// Encode returns the canonical storage form.
func (l ColorList) Encode() string {
	b, _ := l.MarshalJSON()
	return string(b)
}

// ParseColorList normalizes a raw column value.
func ParseColorList(raw string) ColorList {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if vals, err := decodeColors(jx.DecodeStr(raw)); err == nil {
		return vals
	}
	parts := splitDelimited(raw)
	out := make(ColorList, 0, len(parts))
	for _, p := range parts {
		out = append(out, colorFromString(p))
	}
	return out
}

func decodeColors(d *jx.Decoder) ([]Color, error) {
	switch d.Next() {
	case jx.Array:
		var out []Color
		err := d.Arr(func(d *jx.Decoder) error {
			switch d.Next() {
			case jx.Object:
				c, err := decodeColorObj(d)
				if err != nil {
					return err
				}
				out = append(out, c)
				return nil
			case jx.String:
				s, err := d.Str()
				if err != nil {
					return err
				}
				out = append(out, colorFromString(s))
				return nil
			default:
				return errors.Errorf("unsupported color element: %v", d.Next())
			}
		})
		return out, err
	case jx.Object:
		c, err := decodeColorObj(d)
		if err != nil {
			return nil, err
		}
		return []Color{c}, nil
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return nil, err
		}
		return ParseColorList(s), nil
	case jx.Null:
		return nil, d.Null()
	default:
		return nil, errors.Errorf("unsupported color list shape: %v", d.Next())
	}
}

func decodeColorObj(d *jx.Decoder) (Color, error) {
	var c Color
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "name":
			s, err := d.Str()
			if err != nil {
				return err
			}
			c.Name = strings.TrimSpace(s)
		case "hex":
			s, err := d.Str()
			if err != nil {
				return err
			}
			c.Hex = strings.TrimSpace(s)
		default:
			return d.Skip()
		}
		return nil
	})
	return c, err
}

// colorFromString parses a single color entry: a JSON-object string, a
// "Name:#hex" pair, or a bare name.
func colorFromString(s string) Color {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "{") {
		if c, err := decodeColorObj(jx.DecodeStr(s)); err == nil {
			return c
		}
	}
	if name, hex, ok := strings.Cut(s, ":"); ok {
		return Color{Name: strings.TrimSpace(name), Hex: strings.TrimSpace(hex)}
	}
	return Color{Name: s}
}
