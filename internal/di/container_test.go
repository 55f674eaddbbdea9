package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/dig"

	"github.com/mikey/cekfakta-ai/internal/adapters/cli"
	"github.com/mikey/cekfakta-ai/internal/core"
	"github.com/mikey/cekfakta-ai/internal/ports"
)

func setOfflineEnv(t *testing.T) {
	t.Setenv("CEKFAKTA_LLM_PROVIDER", "openai")
	t.Setenv("CEKFAKTA_OPENAI_API_KEY", "sk-test")
	t.Setenv("CEKFAKTA_SENTIMENT_PROVIDER", "vader")
}

func TestBuildContainer(t *testing.T) {
	setOfflineEnv(t)

	container, err := BuildContainer("")
	require.NoError(t, err)

	err = container.Invoke(func(server ports.Server, classifier ports.Classifier, cache core.CacheRepository) {
		assert.NotNil(t, server)
		assert.NotNil(t, classifier)
		assert.NotNil(t, cache)
		if stopper, ok := cache.(interface{ Stop() }); ok {
			stopper.Stop()
		}
	})
	require.NoError(t, err)
}

func TestBuildContainer_InvalidConfiguration(t *testing.T) {
	t.Setenv("CEKFAKTA_LLM_PROVIDER", "azure")
	t.Setenv("AZURE_OPENAI_ENDPOINT", "")
	t.Setenv("AZURE_OPENAI_API_KEY", "")

	container, err := BuildContainer("")
	require.NoError(t, err)

	err = container.Invoke(func(server ports.Server) {})
	require.Error(t, err)
	assert.ErrorIs(t, dig.RootCause(err), core.ErrConfiguration)
}

func TestBuildCLIContainer(t *testing.T) {
	setOfflineEnv(t)

	container, err := BuildCLIContainer(&CLIFlags{JSON: true})
	require.NoError(t, err)

	err = container.Invoke(func(reporter *cli.Reporter) {
		assert.NotNil(t, reporter)
	})
	require.NoError(t, err)
}
