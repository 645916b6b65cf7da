package rdx

import (
	"os"
	"sync"
	"time"

	"pawmart/globals"

	"github.com/redis/go-redis/v9"
)

// Conn is the shared Redis client, set by Connect at startup.
var Conn *redis.Client

var connectOnce sync.Once

// Connect builds the client once and returns it on every call.
func Connect() *redis.Client {
	connectOnce.Do(func() {
		addr := os.Getenv("REDIS_ADDR")
		if addr == "" {
			addr = "localhost:6379"
		}
		Conn = redis.NewClient(&redis.Options{Addr: addr})
	})
	return Conn
}

func SetWithExpiry(key, value string, ttl time.Duration) error {
	return Conn.Set(globals.Ctx, key, value, ttl).Err()
}

func RdxGet(key string) (string, error) {
	return Conn.Get(globals.Ctx, key).Result()
}

func RdxDel(key string) (int64, error) {
	return Conn.Del(globals.Ctx, key).Result()
}

func RdxHset(hash, field, value string) error {
	return Conn.HSet(globals.Ctx, hash, field, value).Err()
}

func RdxHdel(hash, field string) (int64, error) {
	return Conn.HDel(globals.Ctx, hash, field).Result()
}
