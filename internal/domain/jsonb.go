package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Annotation records, id lists and permission maps are stored as JSONB.
// Implementing driver.Valuer and sql.Scanner lets gorm write them both from
// struct saves and from partial map updates.

func scanJSON(src any, dest any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported JSONB source type %T", src)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}

func valueJSON(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Value implements driver.Valuer.
func (p Priority) Value() (driver.Value, error) { return valueJSON(p) }

// Scan implements sql.Scanner.
func (p *Priority) Scan(src any) error { return scanJSON(src, p) }

// Value implements driver.Valuer.
func (s Sentiment) Value() (driver.Value, error) { return valueJSON(s) }

// Scan implements sql.Scanner.
func (s *Sentiment) Scan(src any) error { return scanJSON(src, s) }

// Value implements driver.Valuer.
func (t TimeEstimate) Value() (driver.Value, error) { return valueJSON(t) }

// Scan implements sql.Scanner.
func (t *TimeEstimate) Scan(src any) error { return scanJSON(src, t) }

// StringList is an ordered list of identifiers.
type StringList []string

// Value implements driver.Valuer. A nil list is stored as an empty array.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return valueJSON([]string(l))
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error { return scanJSON(src, (*[]string)(l)) }

// Contains reports whether id is in the list.
func (l StringList) Contains(id string) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// Without returns a copy of the list with id removed, preserving order.
func (l StringList) Without(id string) StringList {
	out := make(StringList, 0, len(l))
	for _, v := range l {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// PermissionMap maps member identifiers to their permission on a shared list.
type PermissionMap map[string]Permission

// Value implements driver.Valuer.
func (m PermissionMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return valueJSON(map[string]Permission(m))
}

// Scan implements sql.Scanner.
func (m *PermissionMap) Scan(src any) error { return scanJSON(src, (*map[string]Permission)(m)) }
