package layout

import (
	"regexp"
	"strings"
)

// Data supplies the values elements are bound to by key.
type Data interface {
	Lookup(key string) (any, bool)
}

// Map is a Data backed by a map.
type Map map[string]any

// Lookup implements Data.
func (m Map) Lookup(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

// LineItem is one row of a breakdown table.
type LineItem struct {
	Item   string  `json:"item" yaml:"item"`
	Amount float64 `json:"amount" yaml:"amount"`
}

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*(?:\|\s*([a-z]+)\s*)?\}\}`)

// Expand replaces {{key}} and {{key|type}} placeholders in s with values
// from data. type is one of the element types, e.g. {{totalSalary|amount}}.
// Unknown keys expand to the empty string.
func Expand(s string, data Data) string {
	if data == nil || !strings.Contains(s, "{{") {
		return s
	}
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		sub := placeholder.FindStringSubmatch(m)
		v, ok := data.Lookup(sub[1])
		if !ok {
			return ""
		}
		return FormatValue(v, sub[2])
	})
}

// lineItems converts a breakdown value to rows. It accepts []LineItem or a
// slice of maps keyed per km.
func lineItems(v any, km *KeyMapping) ([]LineItem, bool) {
	switch v := v.(type) {
	case []LineItem:
		return v, true
	case []map[string]any:
		return mapItems(v, km), true
	case []any:
		rows := make([]map[string]any, 0, len(v))
		for _, r := range v {
			m, ok := r.(map[string]any)
			if !ok {
				return nil, false
			}
			rows = append(rows, m)
		}
		return mapItems(rows, km), true
	}
	return nil, false
}

func mapItems(rows []map[string]any, km *KeyMapping) []LineItem {
	itemKey, amountKey := "item", "amount"
	if km != nil {
		if km.Item != "" {
			itemKey = km.Item
		}
		if km.Amount != "" {
			amountKey = km.Amount
		}
	}
	items := make([]LineItem, 0, len(rows))
	for _, r := range rows {
		amount, _ := toFloat(r[amountKey])
		items = append(items, LineItem{Item: FormatValue(r[itemKey], ""), Amount: amount})
	}
	return items
}
