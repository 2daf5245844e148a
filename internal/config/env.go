package config

import (
	"errors"
	"fmt"
	"io/fs"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

// Env: настройки процесса из переменных окружения.
type Env struct {
	BotToken   string `env:"BOT_TOKEN,required=true" validate:"required"`
	GatewayURL string `env:"GATEWAY_URL,required=true" validate:"required,url"`
	LogLevel   string `env:"LOG_LEVEL,default=info" validate:"oneof=debug info warn error"`
	LogFormat  string `env:"LOG_FORMAT,default=text" validate:"oneof=text json"`
	HTTPAddr   string `env:"HTTP_ADDR,default=:8080" validate:"required"`
	BotConfig  string `env:"BOT_CONFIG,default=conf/botconfig.yaml" validate:"required"`

	ResourcesDir string `env:"RESOURCES_DIR,default=resources"`

	TTSProvider          string `env:"TTS_PROVIDER,default=voicerss" validate:"oneof=voicerss azure"`
	VoiceRSSToken        string `env:"VOICERSS_TOKEN" validate:"required_if=TTSProvider voicerss"`
	AzureTokenEndpoint   string `env:"AZURE_COGNITIVE_TOKEN_ENDPOINT" validate:"required_if=TTSProvider azure"`
	AzureTTSEndpoint     string `env:"AZURE_COGNITIVE_TTS_ENDPOINT" validate:"required_if=TTSProvider azure"`
	AzureSubscriptionKey string `env:"AZURE_COGNITIVE_KEY" validate:"required_if=TTSProvider azure"`
}

// LoadEnv читает необязательный .env-файл и затем окружение процесса.
// Пустой envFile: только окружение.
func LoadEnv(envFile string) (*Env, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg Env
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
