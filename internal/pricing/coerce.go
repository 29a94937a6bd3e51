package pricing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// RawRow is a worksheet row as typed by the user, before numeric coercion.
// It decodes from JSON and YAML with every cell kept as text, so a cell
// holding a string, a boolean or null reaches ParseRow instead of failing
// the whole document.
type RawRow struct {
	Name             string
	Quantity         string
	UnitPrice        string
	DomesticShipping string
	UnitWeight       string
}

// cell returns the field stored under a wire name, or nil for unknown keys.
func (r *RawRow) cell(key string) *string {
	switch key {
	case "name":
		return &r.Name
	case "quantity":
		return &r.Quantity
	case "unit_price":
		return &r.UnitPrice
	case "domestic_shipping":
		return &r.DomesticShipping
	case "unit_weight":
		return &r.UnitWeight
	}
	return nil
}

// UnmarshalJSON decodes an object of cells. Only a row that is not an
// object is an error.
func (r *RawRow) UnmarshalJSON(data []byte) error {
	var cells map[string]json.RawMessage
	if err := json.Unmarshal(data, &cells); err != nil {
		return err
	}

	*r = RawRow{}
	for key, raw := range cells {
		if dst := r.cell(key); dst != nil {
			*dst = jsonCellText(raw)
		}
	}
	return nil
}

func jsonCellText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '{', '[', 'n':
		// objects, arrays and null carry no number
		return ""
	}
	return string(raw)
}

// UnmarshalYAML decodes a mapping of cells. Only a row that is not a
// mapping is an error.
func (r *RawRow) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.AliasNode && value.Alias != nil {
		value = value.Alias
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: an item must be a mapping of fields", value.Line)
	}

	*r = RawRow{}
	for i := 0; i+1 < len(value.Content); i += 2 {
		if dst := r.cell(value.Content[i].Value); dst != nil {
			*dst = yamlCellText(value.Content[i+1])
		}
	}
	return nil
}

func yamlCellText(n *yaml.Node) string {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind != yaml.ScalarNode || n.ShortTag() == "!!null" {
		return ""
	}
	return n.Value
}

// ParseRows coerces a list of raw rows.
func ParseRows(raw []RawRow) []LineItemInput {
	rows := make([]LineItemInput, len(raw))
	for i, r := range raw {
		rows[i] = ParseRow(r)
	}
	return rows
}

// ParseNumber reads a user-typed number. Blank, unparsable and non-finite
// input yields 0 rather than an error. Thousands separators and surrounding
// whitespace are ignored.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", "")

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return sanitize(f)
}

// ParseRow coerces a raw row into a LineItemInput.
func ParseRow(raw RawRow) LineItemInput {
	return Coerce(LineItemInput{
		Name:             strings.TrimSpace(raw.Name),
		Quantity:         ParseNumber(raw.Quantity),
		UnitPrice:        ParseNumber(raw.UnitPrice),
		DomesticShipping: ParseNumber(raw.DomesticShipping),
		UnitWeight:       ParseNumber(raw.UnitWeight),
	})
}

// Coerce normalizes the numeric fields of a row: NaN, infinities and
// negative values become 0 and the quantity is truncated to a whole count.
func Coerce(in LineItemInput) LineItemInput {
	in.Quantity = math.Trunc(sanitize(in.Quantity))
	in.UnitPrice = sanitize(in.UnitPrice)
	in.DomesticShipping = sanitize(in.DomesticShipping)
	in.UnitWeight = sanitize(in.UnitWeight)
	return in
}

func sanitize(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// FormatNumber renders a stored value back into an editable form field.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Raw converts a row back into its editable text form.
func (in LineItemInput) Raw() RawRow {
	return RawRow{
		Name:             in.Name,
		Quantity:         FormatNumber(in.Quantity),
		UnitPrice:        FormatNumber(in.UnitPrice),
		DomesticShipping: FormatNumber(in.DomesticShipping),
		UnitWeight:       FormatNumber(in.UnitWeight),
	}
}
