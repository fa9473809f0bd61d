// Package testutil starts the throwaway services integration tests need.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	ReportStoreAccessKey = "rustfsadmin"
	ReportStoreSecretKey = "rustfsadmin"
	ReportStoreRegion    = "us-east-1"

	reportStoreImage = "rustfs/rustfs:latest"
	reportStorePort  = "9000/tcp"
)

// ReportStore is an S3-compatible RustFS server that eval reports can be
// uploaded to. It is removed when the test finishes.
type ReportStore struct {
	Endpoint string
}

// StartReportStore is skipped under -short since it needs Docker.
func StartReportStore(ctx context.Context, t *testing.T) *ReportStore {
	t.Helper()
	if testing.Short() {
		t.Skip("report store needs Docker; skipped in -short mode")
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        reportStoreImage,
			ExposedPorts: []string{reportStorePort},
			Env: map[string]string{
				"RUSTFS_ACCESS_KEY": ReportStoreAccessKey,
				"RUSTFS_SECRET_KEY": ReportStoreSecretKey,
			},
			WaitingFor: wait.ForListeningPort(reportStorePort).WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Fatalf("failed to start report store: %v", err)
	}

	endpoint, err := container.PortEndpoint(ctx, reportStorePort, "http")
	if err != nil {
		t.Fatalf("failed to resolve report store endpoint: %v", err)
	}
	return &ReportStore{Endpoint: endpoint}
}

// Env returns the PODQUERY_S3_* settings that point podquery at the store.
func (s *ReportStore) Env(bucket string) []string {
	return []string{
		"PODQUERY_S3_ENDPOINT=" + s.Endpoint,
		"PODQUERY_S3_ACCESS_KEY_ID=" + ReportStoreAccessKey,
		"PODQUERY_S3_SECRET_ACCESS_KEY=" + ReportStoreSecretKey,
		"PODQUERY_S3_REGION=" + ReportStoreRegion,
		"PODQUERY_S3_BUCKET=" + bucket,
	}
}
