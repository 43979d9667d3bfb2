//go:build integration

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/erp/invoicing/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func newMinioStorage(t *testing.T) *S3ObjectStorage {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "minio/minio:latest",
			ExposedPorts: []string{"9000/tcp"},
			Cmd:          []string{"server", "/data"},
			Env: map[string]string{
				"MINIO_ROOT_USER":     "minioadmin",
				"MINIO_ROOT_PASSWORD": "minioadmin123",
			},
			WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "http")
	require.NoError(t, err)

	storage, err := NewS3ObjectStorage(&config.StorageConfig{
		Endpoint:     endpoint,
		Region:       "us-east-1",
		Bucket:       "invoices",
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin123",
		UsePathStyle: true,
		KeyPrefix:    "test",
	}, WithLogger(zap.NewNop()))
	require.NoError(t, err)
	require.NoError(t, storage.EnsureBucket(ctx))
	return storage
}

func TestIntegration_ArchiveRoundTrip(t *testing.T) {
	storage := newMinioStorage(t)
	ctx := context.Background()
	key := "invoices/tenant/INV-2026-00001.pdf"

	require.NoError(t, storage.Upload(ctx, key, []byte("%PDF-1.7"), "application/pdf"))

	exists, err := storage.ObjectExists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := storage.Download(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7"), data)

	url, _, err := storage.GenerateDownloadURL(ctx, key, 5*time.Minute)
	require.NoError(t, err)
	assert.Contains(t, url, "test/invoices/tenant")

	require.NoError(t, storage.DeleteObject(ctx, key))
	_, err = storage.Download(ctx, key)
	assert.ErrorIs(t, err, ErrObjectNotFound)

	// EnsureBucket is idempotent
	require.NoError(t, storage.EnsureBucket(ctx))
}
