package storage

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/podquery/internal/config"
	"github.com/cloo-solutions/podquery/internal/domain"
)

func TestNewReportStore_RequiresBucket(t *testing.T) {
	_, err := NewReportStore(context.Background(), ReportStoreConfig{Region: "us-east-1"})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestFromConfig_RequiresS3(t *testing.T) {
	_, err := FromConfig(context.Background(), &config.Config{S3Bucket: "reports"})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Contains(t, err.Error(), "PODQUERY_S3_ENDPOINT")
}

func TestLink_PathStyle(t *testing.T) {
	store, err := FromConfig(context.Background(), &config.Config{
		S3Endpoint:  "http://localhost:9000",
		S3Region:    "us-east-1",
		S3AccessKey: "key",
		S3SecretKey: "secret",
		S3Bucket:    "podquery-reports",
	})
	require.NoError(t, err)
	assert.Equal(t, "podquery-reports", store.Bucket())

	link, err := store.Link(context.Background(), "eval/r-1.json")
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/podquery-reports/eval/r-1.json", u.Path)
	assert.True(t, strings.HasPrefix(u.Query().Get("X-Amz-Credential"), "key/"))
	assert.Equal(t, "3600", u.Query().Get("X-Amz-Expires"))
}

func TestLink_CustomExpiry(t *testing.T) {
	store, err := NewReportStore(context.Background(), ReportStoreConfig{
		Endpoint:        "http://localhost:9000",
		Region:          "us-east-1",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		Bucket:          "reports",
		UsePathStyle:    true,
		LinkExpiry:      10 * time.Minute,
	})
	require.NoError(t, err)

	link, err := store.Link(context.Background(), "r.json")
	require.NoError(t, err)
	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "600", u.Query().Get("X-Amz-Expires"))
}

func TestCleanKey(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{"eval/report.json", "eval/report.json", false},
		{"/eval/report.json", "eval/report.json", false},
		{" eval//nightly/./r.json ", "eval/nightly/r.json", false},
		{"", "", true},
		{"/", "", true},
		{"eval/", "", true},
		{"../escape.json", "", true},
		{"eval/../../escape.json", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := CleanKey(tt.key)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUploadReport_InvalidKeySkipsNetwork(t *testing.T) {
	store, err := NewReportStore(context.Background(), ReportStoreConfig{
		Endpoint: "http://127.0.0.1:1",
		Region:   "us-east-1",
		Bucket:   "reports",
	})
	require.NoError(t, err)

	_, err = store.UploadReport(context.Background(), "reports/", "application/json", []byte("{}"))
	assert.ErrorIs(t, err, ErrInvalidKey)
}
