package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, ProviderGemini, config.Provider)
	assert.Equal(t, "gemini-2.5-flash-lite", config.GetModel(TierLite))
	assert.Equal(t, "gemini-2.5-flash", config.GetModel(TierStandard))
	assert.Equal(t, "gemini-2.5-pro", config.GetModel(TierAdvanced))
}

func TestGetModel_Fallback(t *testing.T) {
	config := &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite: "fallback-model",
		},
	}

	// Unknown tier should fallback to TierStandard, then TierLite
	assert.Equal(t, "fallback-model", config.GetModel("unknown"))
}

func TestGetModel_EmptyConfig(t *testing.T) {
	config := &Config{
		Provider: ProviderGemini,
		Models:   map[ModelTier]string{},
	}

	// Empty config should return empty string
	assert.Equal(t, "", config.GetModel(TierAdvanced))
}

func TestWithModel(t *testing.T) {
	config := DefaultConfig()
	newConfig := config.WithModel(TierAdvanced, "custom-model")

	// Original should be unchanged
	assert.Equal(t, "gemini-2.5-pro", config.GetModel(TierAdvanced))

	// New config should have custom model
	assert.Equal(t, "custom-model", newConfig.GetModel(TierAdvanced))

	// Other tiers should be copied
	assert.Equal(t, "gemini-2.5-flash-lite", newConfig.GetModel(TierLite))
}

func TestModelTierConstants(t *testing.T) {
	assert.Equal(t, ModelTier("lite"), TierLite)
	assert.Equal(t, ModelTier("standard"), TierStandard)
	assert.Equal(t, ModelTier("advanced"), TierAdvanced)
}

func TestProviderConstants(t *testing.T) {
	assert.Equal(t, Provider("gemini"), ProviderGemini)
	assert.Equal(t, Provider("openai"), ProviderOpenAI)
	assert.Equal(t, Provider("anthropic"), ProviderAnthropic)
}

func TestParseProvider(t *testing.T) {
	tests := []struct {
		input   string
		want    Provider
		wantErr bool
	}{
		{"", ProviderGemini, false},
		{"Gemini", ProviderGemini, false},
		{"openai", ProviderOpenAI, false},
		{"claude", ProviderAnthropic, false},
		{" anthropic ", ProviderAnthropic, false},
		{"mistral", "", true},
	}

	for _, tt := range tests {
		got, err := ParseProvider(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		assert.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}

func TestConfigFor(t *testing.T) {
	assert.Equal(t, ProviderOpenAI, ConfigFor(ProviderOpenAI).Provider)
	assert.Equal(t, ProviderAnthropic, ConfigFor(ProviderAnthropic).Provider)
	assert.Equal(t, ProviderGemini, ConfigFor("").Provider)
	assert.NotEmpty(t, ConfigFor(ProviderAnthropic).GetModel(TierStandard))
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	for _, provider := range []Provider{ProviderGemini, ProviderOpenAI, ProviderAnthropic} {
		_, err := NewClient(context.Background(), ConfigFor(provider), "")
		assert.Error(t, err, provider)
	}
}

func TestNewClient_SelectsProvider(t *testing.T) {
	client, err := NewClient(context.Background(), ConfigFor(ProviderOpenAI), "test-key")
	assert.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, client)
	assert.Equal(t, "gpt-4o", client.GetModel(TierStandard))

	client, err = NewClient(context.Background(), ConfigFor(ProviderAnthropic), "test-key")
	assert.NoError(t, err)
	assert.IsType(t, &ClaudeClient{}, client)
	assert.NoError(t, client.Close())
}
