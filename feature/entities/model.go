package entities

import (
	"time"
)

// Record is one stored entity.
type Record struct {
	Type         string         `gorm:"primaryKey;size:64"`
	ID           string         `gorm:"primaryKey;size:128"`
	Name         string         `gorm:"size:255"`
	Status       string         `gorm:"size:64;index"`
	Archived     bool           `gorm:"not null;default:false"`
	Version      int            `gorm:"not null;default:1"`
	CustomFields map[string]any `gorm:"serializer:json;type:text"`
	Attributes   map[string]any `gorm:"serializer:json;type:text"`
	CreatedAt    time.Time
	// ModifiedAt stays nil until the first update.
	ModifiedAt *time.Time `gorm:"column:updated_at"`
}

// TableName overrides the table name used by Record to `entities`.
func (Record) TableName() string {
	return "entities"
}

// requiredColumns are the columns Store reads and writes.
var requiredColumns = []string{
	"type", "id", "name", "status", "archived", "version",
	"custom_fields", "attributes", "created_at", "updated_at",
}

// ToMap renders the record the way the backend API does.
func (r Record) ToMap() map[string]any {
	m := make(map[string]any, len(r.Attributes)+8)
	for k, v := range r.Attributes {
		m[k] = v
	}

	custom := r.CustomFields
	if custom == nil {
		custom = map[string]any{}
	}

	m["id"] = r.ID
	m["name"] = r.Name
	m["status"] = r.Status
	m["archived"] = r.Archived
	m["version"] = r.Version
	m["customFields"] = custom
	m["createdAt"] = r.CreatedAt.UTC().Format(time.RFC3339Nano)
	if r.ModifiedAt != nil {
		m["updatedAt"] = r.ModifiedAt.UTC().Format(time.RFC3339Nano)
	}
	return m
}
