package config

import "time"

type Config interface {
	EnvConfig
	IdentityConfig
	RedisConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
}

type IdentityConfig interface {
	GetIDSURI() string
	GetAPIURI() string
	GetAPIVersion() string
	GetIssuer() string
	GetIPHeader() string
	GetUserAgentHeader() string
	GetAPIClient() ClientConfig
	GetIntrospectionClient() ClientConfig
	GetConnectTimeout() time.Duration
	GetReadTimeout() time.Duration
	GetServiceIP() string
	GetTokenCheckInterval() time.Duration
	GetScheduler() string
}

type RedisConfig interface {
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
}

type mainConfig struct {
	EnvVars
	Identity
	Redis
}

func New() Config {
	return mainConfig{}
}
