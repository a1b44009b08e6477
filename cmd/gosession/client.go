package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	goSession "github.com/MrEthical07/goSession"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// openClient builds a client over the storage selected by flags. The
// returned cleanup closes the client and anything opened for it.
func openClient(o *options, cfg goSession.Config) (*goSession.Client, func(), error) {
	b := goSession.New().WithConfig(cfg).WithLogger(slog.Default())
	closers := []func(){}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch o.store {
	case "memory":
	case "file":
		path, err := o.credentialPath()
		if err != nil {
			return nil, nil, err
		}
		if o.passphrase == "" {
			return nil, nil, errors.New("file store needs --passphrase or GOSESSION_PASSPHRASE")
		}
		b.WithSealedFile(path, o.passphrase)
	case "redis":
		if o.redisAddr == "" {
			return nil, nil, errors.New("redis store needs --redis-addr or REDIS_ADDR")
		}
		rdb := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{o.redisAddr}})
		closers = append(closers, func() { _ = rdb.Close() })
		b.WithRedis(rdb)
	case "miniredis":
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("start miniredis: %w", err)
		}
		rdb := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		closers = append(closers, mr.Close, func() { _ = rdb.Close() })
		b.WithRedis(rdb)
		slog.Debug("using miniredis", "addr", mr.Addr())
	default:
		return nil, nil, fmt.Errorf("unknown store %q", o.store)
	}

	client, err := b.Build()
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	closers = append(closers, client.Close)
	return client, cleanup, nil
}

func (o *options) credentialPath() (string, error) {
	if o.storePath != "" {
		return o.storePath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".gosession", "credential"), nil
}
