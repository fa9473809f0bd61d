package admin

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/podquery/internal/config"
	"github.com/cloo-solutions/podquery/internal/domain"
	"github.com/cloo-solutions/podquery/internal/session"
)

func TestBuildPipeline_RequiresModelKey(t *testing.T) {
	_, _, err := buildPipeline(&config.Config{ModelProvider: config.ProviderAnthropic}, session.NewHistory(), zerolog.Nop())
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestBuildPipeline_SearchOptional(t *testing.T) {
	cfg := &config.Config{
		ModelProvider:   config.ProviderAnthropic,
		AnthropicAPIKey: "sk-ant-test",
		MaxResults:      20,
	}

	p, closeAll, err := buildPipeline(cfg, session.NewHistory(), zerolog.Nop())
	require.NoError(t, err)
	defer closeAll()
	assert.False(t, p.CanSearch())

	cfg.PodcastIndexAPIKey = "key"
	cfg.PodcastIndexAPISecret = "secret"
	p, closeSearch, err := buildPipeline(cfg, session.NewHistory(), zerolog.Nop())
	require.NoError(t, err)
	defer closeSearch()
	assert.True(t, p.CanSearch())
}

func TestBuildPipeline_OpenAI(t *testing.T) {
	cfg := &config.Config{ModelProvider: config.ProviderOpenAI, OpenAIAPIKey: "sk-test", OpenAIModel: "gpt-4o-mini"}

	p, closeAll, err := buildPipeline(cfg, session.NewHistory(), zerolog.Nop())
	require.NoError(t, err)
	defer closeAll()
	assert.NotNil(t, p)
}

func TestServeCmd_Flags(t *testing.T) {
	cmd := ServeCmd()
	assert.NotNil(t, cmd.Flags().Lookup("port"))
	assert.NotNil(t, cmd.Flags().Lookup("max-body-bytes"))
	assert.NotNil(t, cmd.Flags().Lookup("eval-interval"))
}

func TestNewEvalJob_WithoutS3(t *testing.T) {
	cfg := &config.Config{ModelProvider: config.ProviderAnthropic, AnthropicAPIKey: "sk-ant-test"}
	p, closeAll, err := buildPipeline(cfg, session.NewHistory(), zerolog.Nop())
	require.NoError(t, err)
	defer closeAll()

	job, err := newEvalJob(context.Background(), cfg, p, zerolog.Nop())
	require.NoError(t, err)
	assert.Nil(t, job.Last())
}
