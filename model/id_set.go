package model

import (
	"database/sql/driver"
	"fmt"

	"github.com/bytedance/sonic"
)

// IDSet is an insertion-ordered set of identifiers stored as a JSON array column.
type IDSet []string

func NewIDSet(ids ...string) IDSet {
	set := IDSet{}
	for _, id := range ids {
		set, _ = set.Add(id)
	}
	return set
}

func (s IDSet) Contains(id string) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// Add returns the set with id appended and whether it was absent before.
func (s IDSet) Add(id string) (IDSet, bool) {
	if id == "" || s.Contains(id) {
		return s, false
	}
	return append(s, id), true
}

// Union adds every id of other and returns the ids that were new.
func (s IDSet) Union(other []string) (IDSet, []string) {
	var added []string
	for _, id := range other {
		var ok bool
		if s, ok = s.Add(id); ok {
			added = append(added, id)
		}
	}
	return s, added
}

// Without returns a copy of the set minus every id for which drop returns true.
func (s IDSet) Without(drop func(id string) bool) IDSet {
	out := IDSet{}
	for _, id := range s {
		if !drop(id) {
			out = append(out, id)
		}
	}
	return out
}

func (s IDSet) Len() int {
	return len(s)
}

func (s IDSet) Strings() []string {
	return append(make([]string, 0, len(s)), s...)
}

func (IDSet) GormDataType() string {
	return "text"
}

func (s IDSet) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := sonic.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *IDSet) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*s = IDSet{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported IDSet column type %T", value)
	}

	if len(raw) == 0 {
		*s = IDSet{}
		return nil
	}

	var ids []string
	if err := sonic.Unmarshal(raw, &ids); err != nil {
		return fmt.Errorf("failed to decode IDSet: %w", err)
	}
	*s = NewIDSet(ids...)
	return nil
}
