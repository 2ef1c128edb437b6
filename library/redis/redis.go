package redis

import (
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/pkg/errors"
)

type Config struct {
	Host        string
	Password    string
	IdleTimeout int // seconds
	MaxIdle     int
	MaxActive   int
}

var redisPool *redis.Pool

func newPool(conf *Config) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     conf.MaxIdle,
		MaxActive:   conf.MaxActive,
		IdleTimeout: time.Duration(conf.IdleTimeout) * time.Second,
		Wait:        true, // block instead of erroring past MaxActive
		Dial: func() (redis.Conn, error) {
			c, err := redis.Dial("tcp", conf.Host)
			if err != nil {
				return nil, err
			}
			if len(conf.Password) != 0 {
				if _, err := c.Do("AUTH", conf.Password); err != nil {
					c.Close()
					return nil, err
				}
			}
			return c, err
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			_, err := c.Do("PING")
			return err
		},
	}
}

func Init(c *Config) error {
	redisPool = newPool(c)
	conn := redisPool.Get()
	defer conn.Close()
	if _, err := conn.Do("PING"); err != nil {
		return errors.Wrapf(err, "redis ping %s", c.Host)
	}
	return nil
}

func RPush(key, value string) error {
	conn := redisPool.Get()
	defer conn.Close()
	if _, err := conn.Do("RPUSH", key, value); err != nil {
		return errors.Wrapf(err, "redis command: RPUSH %s", key)
	}
	return nil
}

func SAdd(key, member string) error {
	conn := redisPool.Get()
	defer conn.Close()
	if _, err := conn.Do("SADD", key, member); err != nil {
		return errors.Wrapf(err, "redis command: SADD %s %s", key, member)
	}
	return nil
}

// BLPop pops the next value from the first non-empty key, blocking up to
// timeout seconds. ok is false when the wait timed out.
func BLPop(timeout int, keys ...string) (key, value string, ok bool, err error) {
	conn := redisPool.Get()
	defer conn.Close()

	args := make([]interface{}, 0, len(keys)+1)
	for _, k := range keys {
		args = append(args, k)
	}
	args = append(args, timeout)

	reply, err := redis.Strings(conn.Do("BLPOP", args...))
	if err == redis.ErrNil {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, errors.Wrap(err, "redis command: BLPOP")
	}
	return reply[0], reply[1], true, nil
}
