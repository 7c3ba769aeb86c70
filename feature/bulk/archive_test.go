package bulk_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"batch-engine/core/batch"
	"batch-engine/core/entity"
	"batch-engine/core/storage/mocks"
	"batch-engine/feature/bulk"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func objects(infos ...minio.ObjectInfo) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo, len(infos))
	for _, info := range infos {
		ch <- info
	}
	close(ch)
	return ch
}

func isReportKey(entityType string) any {
	return mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "bulk-reports/"+entityType+"/") && strings.HasSuffix(key, ".json")
	})
}

func TestArchive_Save(t *testing.T) {
	m := new(mocks.Client)
	m.On("PutObject", mock.Anything, "reports", isReportKey("features"), mock.Anything, mock.Anything,
		minio.PutObjectOptions{ContentType: "application/json"}).Return(minio.UploadInfo{}, nil)

	a := bulk.NewArchive(m, "reports", 0, zap.NewNop())
	info, err := a.Save(context.Background(), &bulk.UpdateResult{EntityType: "features", Successful: []string{"1"}})
	require.NoError(t, err)

	assert.NotEmpty(t, info.ID)
	assert.Equal(t, "bulk-reports/features/"+info.ID+".json", info.Key)
	assert.Positive(t, info.Size)
	m.AssertExpectations(t)
	m.AssertNotCalled(t, "ListObjects", mock.Anything, mock.Anything, mock.Anything)
}

func TestArchive_SaveRejectsBadType(t *testing.T) {
	a := bulk.NewArchive(new(mocks.Client), "reports", 0, zap.NewNop())
	_, err := a.Save(context.Background(), &bulk.UpdateResult{EntityType: "../etc"})
	assert.True(t, entity.IsValidation(err))
}

func TestArchive_SaveFails(t *testing.T) {
	m := new(mocks.Client)
	m.On("PutObject", mock.Anything, "reports", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("access denied"))

	a := bulk.NewArchive(m, "reports", 0, zap.NewNop())
	_, err := a.Save(context.Background(), &bulk.UpdateResult{EntityType: "features"})
	assert.ErrorContains(t, err, "access denied")
}

func TestArchive_List(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m := new(mocks.Client)
	m.On("ListObjects", mock.Anything, "reports", minio.ListObjectsOptions{Prefix: "bulk-reports/features/", Recursive: true}).
		Return(objects(
			minio.ObjectInfo{Key: "bulk-reports/features/old.json", Size: 10, LastModified: now.Add(-time.Hour)},
			minio.ObjectInfo{Key: "bulk-reports/features/new.json", Size: 2048, LastModified: now},
			minio.ObjectInfo{Key: "bulk-reports/features/readme.txt", LastModified: now},
		))

	a := bulk.NewArchive(m, "reports", 0, zap.NewNop())
	reports, err := a.List(context.Background(), "features")
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "new", reports[0].ID)
	assert.Equal(t, "features", reports[0].EntityType)
	assert.Equal(t, "2.0 kB", reports[0].SizeHuman)
	assert.Equal(t, "old", reports[1].ID)
}

func TestArchive_ListError(t *testing.T) {
	m := new(mocks.Client)
	m.On("ListObjects", mock.Anything, "reports", mock.Anything).
		Return(objects(minio.ObjectInfo{Err: errors.New("bucket gone")}))

	a := bulk.NewArchive(m, "reports", 0, zap.NewNop())
	_, err := a.List(context.Background(), "")
	assert.ErrorContains(t, err, "bucket gone")
}

func TestArchive_Get(t *testing.T) {
	stored, err := json.Marshal(bulk.Report{ID: "r1", EntityType: "features", Result: &bulk.UpdateResult{Successful: []string{"a"}}})
	require.NoError(t, err)

	m := new(mocks.Client)
	m.On("GetObject", mock.Anything, "reports", "bulk-reports/features/r1.json", mock.Anything).
		Return(io.NopCloser(bytes.NewReader(stored)), nil)
	m.On("GetObject", mock.Anything, "reports", "bulk-reports/features/missing.json", mock.Anything).
		Return(nil, minio.ErrorResponse{Code: "NoSuchKey", Message: "The specified key does not exist."})

	a := bulk.NewArchive(m, "reports", 0, zap.NewNop())

	report, err := a.Get(context.Background(), "features", "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, report.Result.Successful)

	_, err = a.Get(context.Background(), "features", "missing")
	assert.True(t, entity.IsNotFound(err))

	_, err = a.Get(context.Background(), "features", "..")
	assert.True(t, entity.IsValidation(err))
}

func TestArchive_Prune(t *testing.T) {
	now := time.Now()
	m := new(mocks.Client)
	m.On("ListObjects", mock.Anything, "reports", mock.Anything).Return(objects(
		minio.ObjectInfo{Key: "bulk-reports/features/a.json", LastModified: now.Add(-3 * time.Hour)},
		minio.ObjectInfo{Key: "bulk-reports/features/b.json", LastModified: now},
		minio.ObjectInfo{Key: "bulk-reports/features/c.json", LastModified: now.Add(-time.Hour)},
	))

	var removed []string
	m.On("RemoveObjects", mock.Anything, "reports", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			for obj := range args.Get(2).(<-chan minio.ObjectInfo) {
				removed = append(removed, obj.Key)
			}
		}).Return(nil)

	a := bulk.NewArchive(m, "reports", 0, zap.NewNop())
	n, err := a.Prune(context.Background(), "features", 2)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"bulk-reports/features/a.json"}, removed)
}

func TestPerformBulkUpdate_Archives(t *testing.T) {
	m := new(mocks.Client)
	m.On("PutObject", mock.Anything, "reports", isReportKey("features"), mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, nil)

	archive := bulk.NewArchive(m, "reports", 0, zap.NewNop())
	e := newBulkEngine(newMemBackend("a"), batch.Config{}, bulk.WithArchive(archive))

	res, err := e.PerformBulkUpdate(context.Background(), bulk.UpdateRequest{
		EntityType: "features",
		Updates:    updates("a"),
		Options:    bulk.UpdateOptions{TrackChanges: true},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.ReportID)
	m.AssertNumberOfCalls(t, "PutObject", 1)

	t.Run("NothingToArchive", func(t *testing.T) {
		res, err := e.PerformBulkUpdate(context.Background(), bulk.UpdateRequest{
			EntityType: "features",
			Updates:    updates("a"),
		})
		require.NoError(t, err)
		assert.Empty(t, res.ReportID)
		m.AssertNumberOfCalls(t, "PutObject", 1)
	})
}
