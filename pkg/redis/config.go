package redis

import "time"

type Config struct {
	ConnectionURL  string        `env:"REDIS_URL,required"`                     // redis://:password@localhost:6379/0
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`    // connection attempts before giving up
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"`   // delay between attempts
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"` // overall deadline for Connect
	KeyPrefix      string        `env:"REDIS_KEY_PREFIX" envDefault:"tier"`     // namespace for usage keys
	UsageTTL       time.Duration `env:"REDIS_USAGE_TTL" envDefault:"1440h"`     // expiry of a monthly usage hash, 0 keeps forever
}
