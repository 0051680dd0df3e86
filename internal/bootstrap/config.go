package bootstrap

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EngineModeLocal  = "local"
	EngineModeRemote = "remote"

	EvalStoreNone  = "none"
	EvalStoreRedis = "redis"
	EvalStoreMongo = "mongo"
)

type Config struct {
	ServerPort               string `mapstructure:"SERVER_PORT"`
	EngineMode               string `mapstructure:"ENGINE_MODE"`
	EnginePath               string `mapstructure:"ENGINE_PATH"`
	EngineArgs               string `mapstructure:"ENGINE_ARGS"`
	EngineDepth              int    `mapstructure:"ENGINE_DEPTH"`
	EngineHandshakeTimeoutMs int    `mapstructure:"ENGINE_HANDSHAKE_TIMEOUT_MS"`
	EngineBridgeAddr         string `mapstructure:"ENGINE_BRIDGE_ADDR"`
	EngineBridgePort         string `mapstructure:"ENGINE_BRIDGE_PORT"`
	EvalStore                string `mapstructure:"EVAL_STORE"`
	RedisUrl                 string `mapstructure:"REDIS_URL"`
	EvalCacheTTLSec          int    `mapstructure:"EVAL_CACHE_TTL_SEC"`
	MongoUri                 string `mapstructure:"MONGO_URI"`
	MongoDatabase            string `mapstructure:"MONGO_DATABASE"`
	IsLocalCors              bool   `mapstructure:"LOCAL_CORS"`
}

var defaults = map[string]any{
	"SERVER_PORT":                 "8080",
	"ENGINE_MODE":                 EngineModeLocal,
	"ENGINE_PATH":                 "stockfish",
	"ENGINE_ARGS":                 "",
	"ENGINE_DEPTH":                18,
	"ENGINE_HANDSHAKE_TIMEOUT_MS": 5000,
	"ENGINE_BRIDGE_ADDR":          "localhost:8082",
	"ENGINE_BRIDGE_PORT":          "8082",
	"EVAL_STORE":                  EvalStoreNone,
	"REDIS_URL":                   "localhost:6379",
	"EVAL_CACHE_TTL_SEC":          86400,
	"MONGO_URI":                   "mongodb://localhost:27017",
	"MONGO_DATABASE":              "chess_review",
	"LOCAL_CORS":                  false,
}

// Setup reads cfgPath if it exists. Environment variables override the file.
func Setup(cfgPath string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	v.SetConfigFile(cfgPath)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) EngineArgList() []string {
	return strings.Fields(c.EngineArgs)
}

func (c *Config) HandshakeTimeout() time.Duration {
	return time.Duration(c.EngineHandshakeTimeoutMs) * time.Millisecond
}

func (c *Config) EvalCacheTTL() time.Duration {
	return time.Duration(c.EvalCacheTTLSec) * time.Second
}
