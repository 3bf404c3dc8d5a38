package main

import (
	"context"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-grader/internal/config"
	"github.com/noah-isme/gema-grader/internal/database"
)

func connectBrokers(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*redis.Client, *nats.Conn) {
	var (
		redisClient *redis.Client
		natsConn    *nats.Conn
		err         error
	)

	if cfg.EventsRedisURL != "" {
		redisClient, err = database.ConnectRedis(ctx, cfg.EventsRedisURL)
		if err != nil {
			logger.Error().Err(err).Msg("redis verdict events disabled")
			redisClient = nil
		}
	}

	if cfg.EventsNATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.EventsNATSURL)
		if err != nil {
			logger.Error().Err(err).Msg("nats verdict events disabled")
			natsConn = nil
		}
	}

	return redisClient, natsConn
}
