package dns

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certhook/certhook/internal/config"
)

type nullProvider struct{}

func (nullProvider) Present(context.Context, string, string, string) error { return nil }
func (nullProvider) CleanUp(context.Context, string, string, string) error { return nil }

func TestRegisterAndLoad(t *testing.T) {
	Register("null", func(cfg *config.Config) (Provider, error) {
		return nullProvider{}, nil
	})

	p, err := Load("null", &config.Config{})
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestLoadUnknownProvider(t *testing.T) {
	_, err := Load("no-such-provider", &config.Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown dns provider")
}

func TestChallengeRecord(t *testing.T) {
	assert.Equal(t, "_acme-challenge.example.com", ChallengeRecord("example.com"))
}
