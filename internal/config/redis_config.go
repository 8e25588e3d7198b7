package config

type Redis struct{}

var _ RedisConfig = Redis{}

// GetRedisAddr enables the distributed refresh lock when set.
func (Redis) GetRedisAddr() string {
	return GetEnv("IDENTITY_REDIS_ADDR", "")
}

func (Redis) GetRedisPassword() string {
	return GetEnv("IDENTITY_REDIS_PASSWORD", "")
}

func (Redis) GetRedisDB() int {
	return GetInt("IDENTITY_REDIS_DB", 0)
}
