package config

// Config holds lectern configuration.
// Loaded from config.yaml with LECTERN_* environment overrides.
type Config struct {
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	LLM    LLMConfig    `mapstructure:"llm" yaml:"llm"`
	Auth   AuthConfig   `mapstructure:"auth" yaml:"auth"`
	Defra  DefraConfig  `mapstructure:"defra" yaml:"defra"`
	Tasks  TasksConfig  `mapstructure:"tasks" yaml:"tasks"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Port is the port to listen on (default: 8080)
	Port int `mapstructure:"port" yaml:"port"`
}

// LLMConfig configures the text-generation client.
type LLMConfig struct {
	// APIKey supports ${ENV_VAR} syntax
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
	// BaseURL overrides the API endpoint (empty = provider default)
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// FastModel handles genre classification and search suggestions
	FastModel string `mapstructure:"fast_model" yaml:"fast_model"`
	// SmartModel handles recommendation synthesis
	SmartModel string `mapstructure:"smart_model" yaml:"smart_model"`
	// MaxRetries for failed requests
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`
}

// AuthConfig holds token settings.
type AuthConfig struct {
	// JWTSecret signs session tokens (supports ${ENV_VAR} syntax)
	JWTSecret string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	// TokenTTLHours is the token lifetime (default: 24)
	TokenTTLHours int `mapstructure:"token_ttl_hours" yaml:"token_ttl_hours"`
}

// DefraConfig holds DefraDB container configuration.
type DefraConfig struct {
	// ContainerName is the Docker container name (default: lectern-defra)
	ContainerName string `mapstructure:"container_name" yaml:"container_name"`
	// Image is the Docker image to use (default: sourcenetwork/defradb:latest)
	Image string `mapstructure:"image" yaml:"image"`
	// Port is the host port to bind (default: 9181)
	Port string `mapstructure:"port" yaml:"port"`
	// URL points at an already-running DefraDB; when set, no container is managed
	URL string `mapstructure:"url" yaml:"url"`
}

// TasksConfig configures the background task runner.
type TasksConfig struct {
	Workers   int `mapstructure:"workers" yaml:"workers"`
	QueueSize int `mapstructure:"queue_size" yaml:"queue_size"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		LLM: LLMConfig{
			APIKey:     "${OPENAI_API_KEY}",
			FastModel:  "gpt-4o-mini",
			SmartModel: "gpt-4o",
			MaxRetries: 2,
		},
		Auth: AuthConfig{
			JWTSecret:     "${LECTERN_JWT_SECRET}",
			TokenTTLHours: 24,
		},
		Defra: DefraConfig{
			ContainerName: "lectern-defra",
			Image:         "sourcenetwork/defradb:latest",
			Port:          "9181",
		},
		Tasks: TasksConfig{
			Workers:   2,
			QueueSize: 64,
		},
	}
}
