// Package redis connects to a Redis server with retries and exposes a
// health probe for it.
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	usage := redisstore.New(client, redisstore.WithKeyPrefix(cfg.KeyPrefix))
//
// Errors returned by Connect wrap the go-redis error with one of the
// package sentinels through errors.Join.
package redis
