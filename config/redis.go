package config

import (
	"context"

	"github.com/go-redis/redis/v8"
)

var Redis *redis.Client

func NewCacheService() error {
	c := redis.NewClient(&redis.Options{
		Addr:     GetEnv("REDIS_HOST", "localhost") + ":" + GetEnv("REDIS_PORT", "6379"),
		Username: GetEnv("REDIS_USERNAME", ""),
		Password: GetEnv("REDIS_PASSWORD", ""),
		DB:       GetEnvInt("REDIS_DB", 0),
	})

	if err := c.Ping(context.Background()).Err(); err != nil {
		return err
	}

	Redis = c
	return nil
}
