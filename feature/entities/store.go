package entities

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"
	"time"

	"batch-engine/core/database"
	"batch-engine/core/entity"
	"batch-engine/core/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// readOnly fields cannot be changed through update_<type>.
var readOnly = map[string]bool{
	"id": true, "type": true, "version": true, "createdAt": true, "updatedAt": true,
}

// Store is an entity.Handler backed by a relational database.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewStore creates a Store on db.
func NewStore(db *gorm.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger, now: time.Now}
}

var (
	_ entity.Handler = (*Store)(nil)
	_ entity.Pinger  = (*Store)(nil)
)

// Migrate creates or updates the entities table and verifies its columns.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Record{}); err != nil {
		return fmt.Errorf("failed to migrate entities: %w", err)
	}
	return s.VerifySchema(ctx)
}

// VerifySchema fails if the entities table lacks a column the store uses.
func (s *Store) VerifySchema(ctx context.Context) error {
	missing, err := database.MissingColumns(s.db.WithContext(ctx), Record{}.TableName(), requiredColumns)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("entities table is missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Ping implements entity.Pinger.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return entity.Wrap(entity.KindNetwork, "ping", "", err)
	}
	return entity.Wrap(entity.KindNetwork, "ping", "", sqlDB.PingContext(ctx))
}

// Create inserts a new entity. fields must contain a non-empty "id".
func (s *Store) Create(ctx context.Context, entityType string, fields map[string]any) (map[string]any, error) {
	id := utils.ToString(fields["id"])
	if id == "" {
		return nil, entity.NewValidation("create_"+entityType, "", "id is required")
	}

	rec := Record{Type: entityType, ID: id, Version: 1, CreatedAt: s.now()}
	changes := maps.Clone(fields)
	delete(changes, "id")
	delete(changes, "createdAt")
	if err := rec.apply(changes, "create_"+entityType); err != nil {
		return nil, err
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&Record{}).Where("type = ? AND id = ?", entityType, id).Count(&existing).Error; err != nil {
		return nil, entity.Wrap(entity.KindUnknown, "create_"+entityType, id, err)
	}
	if existing > 0 {
		return nil, entity.NewValidation("create_"+entityType, id, "entity already exists")
	}

	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, entity.NewValidation("create_"+entityType, id, "entity already exists")
		}
		return nil, entity.Wrap(entity.KindUnknown, "create_"+entityType, id, err)
	}
	return rec.ToMap(), nil
}

// Handle implements entity.Handler.
func (s *Store) Handle(ctx context.Context, operation string, params map[string]any) (*entity.Response, error) {
	verb, entityType, err := entity.ParseOp(operation)
	if err != nil {
		return nil, err
	}

	switch verb {
	case "get":
		if id := utils.ToString(params["id"]); id != "" {
			return s.getOne(ctx, operation, entityType, id, params)
		}
		return s.list(ctx, operation, entityType, params)
	case "update":
		return s.update(ctx, operation, entityType, params)
	default:
		return nil, entity.NewValidation(operation, "", "unsupported operation")
	}
}

func (s *Store) getOne(ctx context.Context, op, entityType, id string, params map[string]any) (*entity.Response, error) {
	var rec Record
	err := s.db.WithContext(ctx).Where("type = ? AND id = ?", entityType, id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, entity.NewNotFound(op, id)
	}
	if err != nil {
		return nil, entity.Wrap(entity.KindUnknown, op, id, err)
	}
	return entity.TextResponse(map[string]any{"data": project(rec.ToMap(), fieldList(params["fields"]))})
}

func (s *Store) list(ctx context.Context, op, entityType string, params map[string]any) (*entity.Response, error) {
	q := s.db.WithContext(ctx).Model(&Record{}).Where("type = ?", entityType)

	ids := stringList(params["ids"])
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	if status := utils.ToString(params["status"]); status != "" {
		q = q.Where("status = ?", status)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, entity.Wrap(entity.KindUnknown, op, "", err)
	}

	limit := utils.ToInt(params["limit"])
	if limit <= 0 {
		limit = max(defaultLimit, len(ids))
	}
	limit = min(limit, maxLimit)

	var recs []Record
	if err := q.Order("id").Limit(limit).Offset(utils.ToInt(params["offset"])).Find(&recs).Error; err != nil {
		return nil, entity.Wrap(entity.KindUnknown, op, "", err)
	}

	fields := fieldList(params["fields"])
	data := make([]map[string]any, 0, len(recs))
	for _, rec := range recs {
		data = append(data, project(rec.ToMap(), fields))
	}

	s.logger.Debug("Listed entities",
		zap.String("type", entityType),
		zap.Int("returned", len(data)),
		zap.Int64("total", total))

	return entity.TextResponse(map[string]any{"data": data, "totalRecords": total})
}

func (s *Store) update(ctx context.Context, op, entityType string, params map[string]any) (*entity.Response, error) {
	id := utils.ToString(params["id"])
	if id == "" {
		return nil, entity.NewValidation(op, "", "id is required")
	}

	changes := make(map[string]any, len(params))
	for k, v := range params {
		if k != "id" && k != "expectedVersion" {
			changes[k] = v
		}
	}
	if len(changes) == 0 {
		return nil, entity.NewValidation(op, id, "no changes supplied")
	}

	var updated Record
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec Record
		err := tx.Where("type = ? AND id = ?", entityType, id).First(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.NewNotFound(op, id)
		}
		if err != nil {
			return entity.Wrap(entity.KindUnknown, op, id, err)
		}

		if expected, ok := params["expectedVersion"]; ok && expected != nil {
			if utils.ToInt(expected) != rec.Version {
				return entity.NewValidation(op, id,
					fmt.Sprintf("version conflict: expected %d, current %d", utils.ToInt(expected), rec.Version))
			}
		}

		next := rec
		next.CustomFields = maps.Clone(rec.CustomFields)
		next.Attributes = maps.Clone(rec.Attributes)
		if err := next.apply(changes, op); err != nil {
			return err
		}
		now := s.now()
		next.Version = rec.Version + 1
		next.ModifiedAt = &now

		res := tx.Model(&rec).
			Where("version = ?", rec.Version).
			Select("name", "status", "archived", "version", "custom_fields", "attributes", "updated_at").
			Updates(&next)
		if res.Error != nil {
			return entity.Wrap(entity.KindUnknown, op, id, res.Error)
		}
		if res.RowsAffected == 0 {
			return entity.NewValidation(op, id, "version conflict: entity changed concurrently")
		}
		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entity.TextResponse(map[string]any{"data": updated.ToMap()})
}

// apply writes changes onto the record. Nil values clear attributes and custom fields.
func (r *Record) apply(changes map[string]any, op string) error {
	keys := make([]string, 0, len(changes))
	for k := range changes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := changes[key]
		if readOnly[key] {
			return entity.NewValidation(op, r.ID, fmt.Sprintf("field %q is read-only", key))
		}

		switch key {
		case "name":
			r.Name = utils.ToString(value)
		case "status":
			r.Status = utils.ToString(value)
		case "archived":
			r.Archived = utils.ToBool(value)
		case "customFields":
			fields, ok := value.(map[string]any)
			if !ok && value != nil {
				return entity.NewValidation(op, r.ID, "customFields must be an object")
			}
			if r.CustomFields == nil {
				r.CustomFields = make(map[string]any, len(fields))
			}
			for k, v := range fields {
				if v == nil {
					delete(r.CustomFields, k)
					continue
				}
				r.CustomFields[k] = v
			}
		default:
			if r.Attributes == nil {
				r.Attributes = make(map[string]any)
			}
			if value == nil {
				delete(r.Attributes, key)
				continue
			}
			r.Attributes[key] = value
		}
	}
	return nil
}

// project keeps only fields (plus id). An empty list keeps everything.
func project(m map[string]any, fields []string) map[string]any {
	if len(fields) == 0 {
		return m
	}
	out := make(map[string]any, len(fields)+1)
	out["id"] = m["id"]
	for _, f := range fields {
		if v, ok := m[f]; ok {
			out[f] = v
		}
	}
	return out
}

func fieldList(v any) []string {
	if s, ok := v.(string); ok {
		var out []string
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return stringList(v)
}

func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s := utils.ToString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
