package bulk

import (
	"reflect"
	"sort"
	"strings"

	"batch-engine/core/utils"
)

// Operation is the kind of a DiffOperation.
type Operation string

const (
	OpAdd    Operation = "add"
	OpRemove Operation = "remove"
	OpChange Operation = "change"
)

// significantFields are compared in lower case.
var significantFields = map[string]bool{
	"status":    true,
	"name":      true,
	"title":     true,
	"summary":   true,
	"priority":  true,
	"assignee":  true,
	"duedate":   true,
	"startdate": true,
	"enddate":   true,
	"archived":  true,
	"deleted":   true,
}

// DiffOperation is one field level difference.
type DiffOperation struct {
	Operation Operation `json:"operation"`
	Path      string    `json:"path"`
	OldValue  any       `json:"oldValue,omitempty"`
	NewValue  any       `json:"newValue,omitempty"`
}

// EntityDiff is the difference between two snapshots of one entity.
// Every path in SignificantChanges is also the path of an operation.
type EntityDiff struct {
	ID                 string          `json:"id"`
	Operations         []DiffOperation `json:"operations"`
	HasChanges         bool            `json:"hasChanges"`
	ChangeCount        int             `json:"changeCount"`
	SignificantChanges []string        `json:"significantChanges"`
}

// IsSignificant reports whether path names a business relevant field.
func IsSignificant(path string) bool {
	return significantFields[strings.ToLower(path)]
}

// CreateEntityDiff compares the top level keys of before and after.
// Keys are visited in sorted order so the result is deterministic.
func CreateEntityDiff(id string, before, after map[string]any) EntityDiff {
	keys := make([]string, 0, len(before)+len(after))
	for k := range before {
		keys = append(keys, k)
	}
	for k := range after {
		if _, ok := before[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	d := EntityDiff{
		ID:                 id,
		Operations:         []DiffOperation{},
		SignificantChanges: []string{},
	}
	for _, k := range keys {
		old, inBefore := before[k]
		val, inAfter := after[k]

		var op DiffOperation
		switch {
		case !inBefore:
			op = DiffOperation{Operation: OpAdd, Path: k, NewValue: val}
		case !inAfter:
			op = DiffOperation{Operation: OpRemove, Path: k, OldValue: old}
		case differs(old, val):
			op = DiffOperation{Operation: OpChange, Path: k, OldValue: old, NewValue: val}
		default:
			continue
		}

		d.Operations = append(d.Operations, op)
		if IsSignificant(k) {
			d.SignificantChanges = append(d.SignificantChanges, k)
		}
	}
	d.ChangeCount = len(d.Operations)
	d.HasChanges = d.ChangeCount > 0
	return d
}

// differs reports whether a and b hold different values. Lists are compared
// positionally, objects key by key, numbers by value regardless of Go type.
func differs(a, b any) bool {
	if isNil(a) || isNil(b) {
		return isNil(a) != isNil(b)
	}

	if al, ok := asList(a); ok {
		bl, ok := asList(b)
		if !ok || len(al) != len(bl) {
			return true
		}
		for i := range al {
			if differs(al[i], bl[i]) {
				return true
			}
		}
		return false
	}

	if ao, ok := asObject(a); ok {
		bo, ok := asObject(b)
		if !ok || len(ao) != len(bo) {
			return true
		}
		for k, v := range ao {
			w, ok := bo[k]
			if !ok || differs(v, w) {
				return true
			}
		}
		return false
	}

	if af, ok := utils.ToFloat(a); ok {
		bf, ok := utils.ToFloat(b)
		return !ok || af != bf
	}
	return !reflect.DeepEqual(a, b)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func asList(v any) ([]any, bool) {
	if l, ok := v.([]any); ok {
		return l, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func asObject(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}
