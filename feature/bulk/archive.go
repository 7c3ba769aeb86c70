package bulk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"batch-engine/core/entity"
	"batch-engine/core/storage"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

const reportPrefix = "bulk-reports"

// Report is an archived UpdateResult.
type Report struct {
	ID         string        `json:"id"`
	EntityType string        `json:"entityType"`
	CreatedAt  time.Time     `json:"createdAt"`
	Result     *UpdateResult `json:"result"`
}

// ReportInfo describes an archived report without loading it.
type ReportInfo struct {
	ID           string    `json:"id"`
	EntityType   string    `json:"entityType"`
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	SizeHuman    string    `json:"sizeHuman"`
	LastModified time.Time `json:"lastModified"`
}

// Archive stores bulk update reports in object storage under
// bulk-reports/<type>/<id>.json.
type Archive struct {
	client storage.Client
	bucket string
	keep   int
	logger *zap.Logger
	now    func() time.Time
}

// NewArchive creates an Archive. keep bounds the reports retained per entity
// type; zero keeps everything.
func NewArchive(client storage.Client, bucket string, keep int, logger *zap.Logger) *Archive {
	return &Archive{client: client, bucket: bucket, keep: keep, logger: logger, now: time.Now}
}

func reportKey(entityType, id string) string {
	return path.Join(reportPrefix, entityType, id+".json")
}

func validSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}

// Save uploads res and prunes old reports of the same entity type.
func (a *Archive) Save(ctx context.Context, res *UpdateResult) (*ReportInfo, error) {
	if !validSegment(res.EntityType) {
		return nil, entity.Validationf("invalid entity type %q", res.EntityType)
	}

	report := Report{
		ID:         uuid.NewString(),
		EntityType: res.EntityType,
		CreatedAt:  a.now().UTC(),
		Result:     res,
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}

	key := reportKey(report.EntityType, report.ID)
	_, err = a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload report %s: %w", key, err)
	}

	a.logger.Info("Bulk report archived",
		zap.String("key", key),
		zap.String("size", humanize.Bytes(uint64(len(data)))))

	if a.keep > 0 {
		if _, err := a.Prune(ctx, report.EntityType, a.keep); err != nil {
			a.logger.Warn("Failed to prune bulk reports", zap.String("entity_type", report.EntityType), zap.Error(err))
		}
	}

	return &ReportInfo{
		ID:           report.ID,
		EntityType:   report.EntityType,
		Key:          key,
		Size:         int64(len(data)),
		SizeHuman:    humanize.Bytes(uint64(len(data))),
		LastModified: report.CreatedAt,
	}, nil
}

// List returns the reports of entityType, newest first. An empty entityType
// lists every report.
func (a *Archive) List(ctx context.Context, entityType string) ([]ReportInfo, error) {
	prefix := reportPrefix + "/"
	if entityType != "" {
		if !validSegment(entityType) {
			return nil, entity.Validationf("invalid entity type %q", entityType)
		}
		prefix += entityType + "/"
	}

	var out []ReportInfo
	for obj := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list reports: %w", obj.Err)
		}
		rel := strings.TrimPrefix(obj.Key, reportPrefix+"/")
		typ, file, ok := strings.Cut(rel, "/")
		if !ok || !strings.HasSuffix(file, ".json") {
			continue
		}
		out = append(out, ReportInfo{
			ID:           strings.TrimSuffix(file, ".json"),
			EntityType:   typ,
			Key:          obj.Key,
			Size:         obj.Size,
			SizeHuman:    humanize.Bytes(uint64(obj.Size)),
			LastModified: obj.LastModified,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastModified.After(out[j].LastModified)
	})
	return out, nil
}

// Get loads one report.
func (a *Archive) Get(ctx context.Context, entityType, id string) (*Report, error) {
	if !validSegment(entityType) || !validSegment(id) {
		return nil, entity.Validationf("invalid report reference %s/%s", entityType, id)
	}
	key := reportKey(entityType, id)

	obj, err := a.client.GetObject(ctx, a.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, classifyStorageErr(key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, classifyStorageErr(key, err)
	}

	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", key, err)
	}
	return &report, nil
}

// Prune removes all but the newest keep reports of entityType and returns the
// number removed.
func (a *Archive) Prune(ctx context.Context, entityType string, keep int) (int, error) {
	reports, err := a.List(ctx, entityType)
	if err != nil {
		return 0, err
	}
	if len(reports) <= keep {
		return 0, nil
	}

	stale := reports[keep:]
	objectsCh := make(chan minio.ObjectInfo, len(stale))
	for _, r := range stale {
		objectsCh <- minio.ObjectInfo{Key: r.Key}
	}
	close(objectsCh)

	failed := 0
	for rerr := range a.client.RemoveObjects(ctx, a.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		failed++
		a.logger.Warn("Failed to remove report", zap.String("key", rerr.ObjectName), zap.Error(rerr.Err))
	}

	removed := len(stale) - failed
	a.logger.Info("Bulk reports pruned",
		zap.String("entity_type", entityType),
		zap.Int("removed", removed),
		zap.Int("kept", keep))
	return removed, nil
}

func classifyStorageErr(key string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return entity.NewNotFound("get_report", key)
	}
	return fmt.Errorf("failed to read report %s: %w", key, err)
}
