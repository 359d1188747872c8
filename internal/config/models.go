package config

import "time"

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider string
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// AzureConfig represents the configuration for Azure OpenAI
type AzureConfig struct {
	APIKey     string
	Endpoint   string
	Deployment string
	APIVersion string
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// EngineConfig represents the conversation engine configuration
type EngineConfig struct {
	MaxRounds    int
	RoundTimeout time.Duration
	RunTimeout   time.Duration
	MaxBodySize  int
	SystemPrompt string
}

// ScannerConfig represents the URL scanner configuration
type ScannerConfig struct {
	Type          string
	StaticVerdict string
	HTTPEndpoint  string
	HTTPTimeout   time.Duration
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		BaseURL:     c.GetString("openai.base_url"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
	}
}

// GetAzure returns the Azure OpenAI configuration
func (c *Config) GetAzure() AzureConfig {
	return AzureConfig{
		APIKey:     c.GetString("azure.api_key"),
		Endpoint:   c.GetString("azure.endpoint"),
		Deployment: c.GetString("azure.deployment"),
		APIVersion: c.GetString("azure.api_version"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetEngine returns the conversation engine configuration
func (c *Config) GetEngine() (EngineConfig, error) {
	roundTimeout, err := c.GetDuration("engine.round_timeout")
	if err != nil {
		return EngineConfig{}, err
	}
	runTimeout, err := c.GetDuration("engine.run_timeout")
	if err != nil {
		return EngineConfig{}, err
	}
	return EngineConfig{
		MaxRounds:    c.GetInt("engine.max_rounds"),
		RoundTimeout: roundTimeout,
		RunTimeout:   runTimeout,
		MaxBodySize:  c.GetInt("engine.max_body_size"),
		SystemPrompt: c.GetString("engine.system_prompt"),
	}, nil
}

// GetScanner returns the URL scanner configuration
func (c *Config) GetScanner() (ScannerConfig, error) {
	httpTimeout, err := c.GetDuration("scanner.http_timeout")
	if err != nil {
		return ScannerConfig{}, err
	}
	return ScannerConfig{
		Type:          c.GetString("scanner.type"),
		StaticVerdict: c.GetString("scanner.static_verdict"),
		HTTPEndpoint:  c.GetString("scanner.http_endpoint"),
		HTTPTimeout:   httpTimeout,
	}, nil
}
