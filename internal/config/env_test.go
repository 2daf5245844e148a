package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadEnv_Defaults(t *testing.T) {
	req := require.New(t)
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("GATEWAY_URL", "wss://gateway.example/ws")
	t.Setenv("VOICERSS_TOKEN", "rss")

	cfg, err := LoadEnv("")
	req.NoError(err)
	req.Equal("info", cfg.LogLevel)
	req.Equal("text", cfg.LogFormat)
	req.Equal(":8080", cfg.HTTPAddr)
	req.Equal("conf/botconfig.yaml", cfg.BotConfig)
	req.Equal("voicerss", cfg.TTSProvider)
}

func TestLoadEnv_Azure_Requires_Endpoints(t *testing.T) {
	req := require.New(t)
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("GATEWAY_URL", "wss://gateway.example/ws")
	t.Setenv("TTS_PROVIDER", "azure")

	_, err := LoadEnv("")
	req.Error(err)
	req.Contains(err.Error(), "AzureTokenEndpoint")
}

func TestLoadEnv_From_File(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), ".env")
	req.NoError(os.WriteFile(path, []byte("BOT_TOKEN=from-file\nGATEWAY_URL=ws://localhost:9000\nVOICERSS_TOKEN=x\nLOG_FORMAT=json\n"), 0o600))
	t.Cleanup(func() {
		for _, k := range []string{"BOT_TOKEN", "GATEWAY_URL", "VOICERSS_TOKEN", "LOG_FORMAT"} {
			_ = os.Unsetenv(k)
		}
	})

	cfg, err := LoadEnv(path)
	req.NoError(err)
	req.Equal("from-file", cfg.BotToken)
	req.Equal("json", cfg.LogFormat)
}

func TestLoadEnv_Missing_File_Is_Fine(t *testing.T) {
	req := require.New(t)
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("GATEWAY_URL", "ws://localhost:9000")
	t.Setenv("VOICERSS_TOKEN", "rss")

	_, err := LoadEnv(filepath.Join(t.TempDir(), "nope.env"))
	req.NoError(err)
}
