package config

import "time"

type Config struct {
	Server      HTTPServerConfig `json:"server"`
	LLM         LLMConfig        `json:"llm"`
	Mongo       MongoConfig
	Marketplace MarketplaceConfig
	FileRepo    FileRepoConfig
}

type HTTPServerConfig struct {
	Host         string        `json:"host" default:"0.0.0.0"`
	Port         int           `json:"port" default:"8080"`
	ReadTimeout  time.Duration `json:"read_timeout" default:"120s"`
	WriteTimeout time.Duration `json:"write_timeout" default:"120s"`
}

// LLMConfig points at any OpenAI-compatible chat completion endpoint. An empty
// APIKey disables the enhancement pass; extraction then runs alone.
type LLMConfig struct {
	APIKey  string        `json:"api_key"`
	BaseURL string        `json:"base_url" default:"https://api.openai.com/v1/chat/completions"`
	Model   string        `json:"model" default:"gpt-4o-mini"`
	Timeout time.Duration `json:"timeout" default:"60s"`
}

type MongoConfig struct {
	URI      string `json:"uri" required:"true"`
	Database string `json:"database" required:"true"`
}

type MarketplaceConfig struct {
	BaseURL string        `json:"base_url" required:"true"`
	APIKey  string        `json:"api_key"`
	Timeout time.Duration `json:"timeout" default:"30s"`
}

type FileRepoConfig struct {
	ManifestDir string `json:"manifest_dir" default:"./manifests"`
}
