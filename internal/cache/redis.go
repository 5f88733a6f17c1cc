// Package cache guarda respostas de endpoints públicos no Redis. Se o Redis
// não estiver acessível na subida, o cliente fica nil e o middleware vira um
// pass-through: o serviço degrada sem cache em vez de falhar.
package cache

import (
	"context"
	"log"
	"time"

	"pdv-backend/internal/config"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient cria o cliente a partir da configuração. Retorna nil quando
// não há endereço configurado ou quando a conexão falha.
func NewRedisClient(cfg *config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("redis: conexão falhou, cache desabilitado: %v", err)
		return nil
	}

	return client
}
