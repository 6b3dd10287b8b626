package config

import "time"

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider string
}

// ServerConfig represents the HTTP API server configuration
type ServerConfig struct {
	ListenAddress   string
	CORSOrigins     []string
	ShutdownTimeout time.Duration
}

// GmailConfig represents the configuration for the Gmail API client
type GmailConfig struct {
	CredentialsPath string
	TokenPath       string
	PageSize        int64
	MaxPages        int
	MaxRetries      int
	InitialBackoff  time.Duration
	MaxBackoff      time.Duration
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
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

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// PipelineConfig represents the analysis pipeline configuration
type PipelineConfig struct {
	VisionEnabled bool
	MaxImages     int
	MaxBodySize   int
}

// ImagesConfig represents the image extraction configuration
type ImagesConfig struct {
	AllowedDomains []string
	MaxPerMessage  int
}

// HistoryConfig represents the history store configuration
type HistoryConfig struct {
	StorageDir string
	MaxFiles   int
}

// NotifyConfig represents the digest notifier configuration
type NotifyConfig struct {
	Enabled     bool
	SMTPAddress string
	Username    string
	Password    string
	From        string
	To          []string
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
	}
}

// GetServer returns the server configuration
func (c *Config) GetServer() ServerConfig {
	timeout, err := c.GetDuration("server.shutdown_timeout")
	if err != nil {
		timeout = 10 * time.Second
	}
	return ServerConfig{
		ListenAddress:   c.GetString("server.listen_address"),
		CORSOrigins:     c.GetStringSlice("server.cors_origins"),
		ShutdownTimeout: timeout,
	}
}

// GetGmail returns the Gmail client configuration
func (c *Config) GetGmail() GmailConfig {
	initial, err := c.GetDuration("gmail.initial_backoff")
	if err != nil {
		initial = 500 * time.Millisecond
	}
	max, err := c.GetDuration("gmail.max_backoff")
	if err != nil {
		max = 30 * time.Second
	}
	return GmailConfig{
		CredentialsPath: c.GetString("gmail.credentials_path"),
		TokenPath:       c.GetString("gmail.token_path"),
		PageSize:        int64(c.GetInt("gmail.page_size")),
		MaxPages:        c.GetInt("gmail.max_pages"),
		MaxRetries:      c.GetInt("gmail.max_retries"),
		InitialBackoff:  initial,
		MaxBackoff:      max,
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
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

// GetPipeline returns the pipeline configuration
func (c *Config) GetPipeline() PipelineConfig {
	return PipelineConfig{
		VisionEnabled: c.GetBool("pipeline.vision_enabled"),
		MaxImages:     c.GetInt("pipeline.max_images"),
		MaxBodySize:   c.GetInt("pipeline.max_body_size"),
	}
}

// GetImages returns the image extraction configuration
func (c *Config) GetImages() ImagesConfig {
	return ImagesConfig{
		AllowedDomains: c.GetStringSlice("images.allowed_domains"),
		MaxPerMessage:  c.GetInt("images.max_per_message"),
	}
}

// GetHistory returns the history store configuration
func (c *Config) GetHistory() HistoryConfig {
	return HistoryConfig{
		StorageDir: c.GetString("history.storage_dir"),
		MaxFiles:   c.GetInt("history.max_files"),
	}
}

// GetNotify returns the digest notifier configuration
func (c *Config) GetNotify() NotifyConfig {
	return NotifyConfig{
		Enabled:     c.GetBool("notify.enabled"),
		SMTPAddress: c.GetString("notify.smtp_address"),
		Username:    c.GetString("notify.username"),
		Password:    c.GetString("notify.password"),
		From:        c.GetString("notify.from"),
		To:          c.GetStringSlice("notify.to"),
	}
}
