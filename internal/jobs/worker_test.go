package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/podquery/internal/eval"
	"github.com/cloo-solutions/podquery/internal/fixtures"
	"github.com/cloo-solutions/podquery/internal/interpreter"
	"github.com/cloo-solutions/podquery/internal/pipeline"
)

// MockJobProcessor is a mock implementation of JobProcessor
type MockJobProcessor struct {
	mock.Mock
}

func (m *MockJobProcessor) ProcessJobs(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockUploader is a mock implementation of ReportUploader
type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) UploadReport(ctx context.Context, key, contentType string, body []byte) (string, error) {
	args := m.Called(ctx, key, contentType, body)
	return args.String(0), args.Error(1)
}

func oraclePipeline() *pipeline.Pipeline {
	interp := interpreter.NewClient(fixtures.NewOracleTransport(), interpreter.Config{Logger: zerolog.Nop()})
	return pipeline.New(interp, pipeline.Options{Logger: zerolog.Nop()})
}

func TestWorker_StartStop(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, WorkerConfig{Interval: 100 * time.Millisecond, Logger: zerolog.Nop()})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(250 * time.Millisecond)

	worker.Stop()
	worker.Stop()
	wg.Wait()

	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

func TestWorker_ContextCancellation(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, WorkerConfig{Interval: 100 * time.Millisecond, Logger: zerolog.Nop()})

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(150 * time.Millisecond)

	cancel()
	wg.Wait()

	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

func TestWorker_ErrorsAreLogged(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(errors.New("upload refused"))

	var buf bytes.Buffer
	worker := NewWorker(mockProcessor, WorkerConfig{Name: "eval-worker", Interval: 20 * time.Millisecond, Logger: zerolog.New(&buf)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Start(ctx)
	}()

	time.Sleep(70 * time.Millisecond)
	cancel()
	<-done

	assert.Contains(t, buf.String(), "upload refused")
	assert.Contains(t, buf.String(), `"component":"eval-worker"`)
}

func TestWorker_RunOnStart(t *testing.T) {
	ran := make(chan struct{}, 1)
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil).Run(func(mock.Arguments) {
		select {
		case ran <- struct{}{}:
		default:
		}
	})

	worker := NewWorker(mockProcessor, WorkerConfig{Interval: time.Hour, RunOnStart: true, Logger: zerolog.Nop()})
	go worker.Start(context.Background())

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run on start")
	}
	worker.Stop()
}

func TestWorker_RunTimeout(t *testing.T) {
	var deadline time.Time
	var hasDeadline bool
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		deadline, hasDeadline = args.Get(0).(context.Context).Deadline()
	})

	worker := NewWorker(mockProcessor, WorkerConfig{Interval: time.Hour, Timeout: time.Minute, Logger: zerolog.Nop()})
	start := time.Now()
	worker.run(context.Background())

	require.True(t, hasDeadline)
	assert.WithinDuration(t, start.Add(time.Minute), deadline, 5*time.Second)
}

func TestEvalJob_ProcessJobs(t *testing.T) {
	uploader := new(MockUploader)
	uploader.On("UploadReport", mock.Anything,
		mock.MatchedBy(func(key string) bool { return strings.HasPrefix(key, DefaultReportPrefix+"/") }),
		"application/json", mock.Anything).
		Return("https://s3.example.com/report", nil)

	job := NewEvalJob(EvalJobConfig{
		Runner:   oraclePipeline(),
		Uploader: uploader,
		Logger:   zerolog.Nop(),
	})
	assert.Nil(t, job.Last())

	require.NoError(t, job.ProcessJobs(context.Background()))

	last := job.Last()
	require.NotNil(t, last)
	assert.Equal(t, len(fixtures.Cases()), last.Summary.Total)
	assert.Equal(t, 100.0, last.Summary.PassRate)

	uploader.AssertExpectations(t)
	body := uploader.Calls[0].Arguments.Get(3).([]byte)
	var uploaded eval.Report
	require.NoError(t, json.Unmarshal(body, &uploaded))
	assert.Equal(t, last.ID, uploaded.ID)
}

func TestEvalJob_UploadFailure(t *testing.T) {
	uploader := new(MockUploader)
	uploader.On("UploadReport", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("bucket missing"))

	job := NewEvalJob(EvalJobConfig{
		Runner:    oraclePipeline(),
		Cases:     fixtures.Cases()[:2],
		Uploader:  uploader,
		KeyPrefix: "nightly",
		Logger:    zerolog.Nop(),
	})

	err := job.ProcessJobs(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket missing")
	assert.Contains(t, err.Error(), "nightly/")
	require.NotNil(t, job.Last())
	assert.Equal(t, 2, job.Last().Summary.Total)
}

func TestEvalJob_NoUploader(t *testing.T) {
	job := NewEvalJob(EvalJobConfig{Runner: oraclePipeline(), Logger: zerolog.Nop()})
	assert.NoError(t, job.ProcessJobs(context.Background()))
}

func TestReportKey(t *testing.T) {
	r := &eval.Report{ID: "r-1", GeneratedAt: time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)}
	assert.Equal(t, "eval/scheduled/20260304T050607Z-r-1.json", ReportKey(DefaultReportPrefix, r))
}
