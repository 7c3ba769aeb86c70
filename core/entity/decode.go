package entity

import (
	"encoding/json"
	"strings"

	"batch-engine/core/utils"
)

// Payload decodes the JSON inside the first text block. It returns nil when the
// envelope is empty or the text is not JSON.
func Payload(resp *Response) any {
	if resp == nil {
		return nil
	}
	for _, c := range resp.Content {
		if c.Type != "" && c.Type != ContentTypeText {
			continue
		}
		var v any
		if err := json.Unmarshal([]byte(c.Text), &v); err != nil {
			return nil
		}
		return v
	}
	return nil
}

// DecodeList returns the entities under "data". A bare JSON array is accepted too.
// Items that are not objects are dropped.
func DecodeList(resp *Response) []map[string]any {
	var raw []any
	switch v := Payload(resp).(type) {
	case map[string]any:
		raw, _ = v["data"].([]any)
	case []any:
		raw = v
	}

	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// DecodeEntity extracts a single entity. It looks under "data", then under a key
// named after the entity type (plural or singular), and finally accepts the object
// itself. It returns nil when nothing usable is found.
func DecodeEntity(resp *Response, entityType string) map[string]any {
	obj, ok := Payload(resp).(map[string]any)
	if !ok {
		return nil
	}

	if data, ok := obj["data"].(map[string]any); ok {
		return data
	}
	for _, key := range typeKeys(entityType) {
		if nested, ok := obj[key].(map[string]any); ok {
			return nested
		}
	}
	return obj
}

// TotalRecords reads the total-record count from a list envelope. It checks the
// common top-level keys, then "pagination" and "meta" objects. The second result is
// false if no count is present.
func TotalRecords(resp *Response) (int, bool) {
	obj, ok := Payload(resp).(map[string]any)
	if !ok {
		return 0, false
	}
	if n, ok := totalIn(obj); ok {
		return n, true
	}
	for _, key := range []string{"pagination", "meta"} {
		if nested, ok := obj[key].(map[string]any); ok {
			if n, ok := totalIn(nested); ok {
				return n, true
			}
		}
	}
	return 0, false
}

func totalIn(obj map[string]any) (int, bool) {
	for _, key := range []string{"totalRecords", "total", "totalResults", "count"} {
		if v, ok := obj[key]; ok {
			if _, isNum := utils.ToFloat(v); isNum {
				return utils.ToInt(v), true
			}
		}
	}
	return 0, false
}

// typeKeys returns the candidate keys an entity of this type may be nested under.
func typeKeys(entityType string) []string {
	keys := []string{entityType}
	switch {
	case strings.HasSuffix(entityType, "ies"):
		keys = append(keys, strings.TrimSuffix(entityType, "ies")+"y")
	case strings.HasSuffix(entityType, "s"):
		keys = append(keys, strings.TrimSuffix(entityType, "s"))
	}
	return keys
}
