// Package storage provides the object storage client used to archive bulk reports.
//
// It wraps the MinIO Go client behind the Client interface so the archive can be tested
// with the testify mock in core/storage/mocks. Both AWS S3 and self-hosted MinIO work.
//
// # Operations
//
//   - BucketExists / MakeBucket: used by EnsureBucket at startup.
//   - PutObject: stores a report.
//   - GetObject: reads a report back as a stream.
//   - ListObjects: lists reports under a prefix.
//   - RemoveObjects: prunes old reports in one request.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	err = storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region)
package storage
