package cache

import (
	"crypto/sha1"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// ResponseCache devolve um middleware que guarda respostas 200 de GET no
// Redis por um TTL curto. A chave é rota + query string. No Fiber a resposta
// fica bufferizada, então dá para ler o corpo depois do c.Next() direto.
func ResponseCache(rdb *redis.Client, prefix string, ttl time.Duration) fiber.Handler {
	if rdb == nil {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	if ttl <= 0 {
		ttl = time.Minute
	}

	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodGet {
			return c.Next()
		}

		sum := sha1.Sum([]byte(c.Path() + "?" + string(c.Request().URI().QueryString())))
		key := fmt.Sprintf("%s:%x", prefix, sum[:])

		ctx := c.Context()
		if body, err := rdb.Get(ctx, key).Bytes(); err == nil && len(body) > 0 {
			c.Set("X-Cache", "HIT")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Send(body)
		}

		c.Set("X-Cache", "MISS")
		if err := c.Next(); err != nil {
			return err
		}

		if c.Response().StatusCode() == fiber.StatusOK {
			body := c.Response().Body()
			if len(body) > 0 {
				// Cache é melhor esforço: erro aqui não derruba a resposta
				_ = rdb.Set(ctx, key, body, ttl).Err()
			}
		}

		return nil
	}
}
