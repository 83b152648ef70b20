package model

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/rotisserie/eris"
)

// StatValue is one cell of a skill progression column: an integer when the
// source text was a bare (optionally "+"-prefixed) number, raw text otherwise.
type StatValue struct {
	Num   int
	Text  string
	IsNum bool
}

// IntStat returns a numeric StatValue.
func IntStat(n int) StatValue { return StatValue{Num: n, IsNum: true} }

// TextStat returns a textual StatValue.
func TextStat(s string) StatValue { return StatValue{Text: s} }

// String renders the value as it appears in the source table.
func (v StatValue) String() string {
	if v.IsNum {
		return strconv.Itoa(v.Num)
	}
	return v.Text
}

// MarshalJSON encodes numbers as JSON numbers and text as JSON strings.
func (v StatValue) MarshalJSON() ([]byte, error) {
	if v.IsNum {
		return []byte(strconv.Itoa(v.Num)), nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v.Text); err != nil {
		return nil, eris.Wrap(err, "model: encode stat text")
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON accepts an integer or a string.
func (v *StatValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return eris.Wrap(err, "model: decode stat text")
		}
		*v = TextStat(s)
		return nil
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return eris.Wrapf(err, "model: stat value %s is neither integer nor string", string(data))
	}
	*v = IntStat(n)
	return nil
}
