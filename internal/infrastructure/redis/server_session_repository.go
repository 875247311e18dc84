// Package redis guarda las sesiones del lado servidor con TTL deslizante.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/portal-movimiento/internal/domain/entity"
	"github.com/jhoicas/portal-movimiento/internal/domain/repository"
	"github.com/jhoicas/portal-movimiento/pkg/config"
)

var _ repository.ServerSessionRepository = (*ServerSessionRepo)(nil)

const keyPrefix = "session:"

// ServerSessionRepo una sesión por hash "session:<id>" con campos user_id y created_at.
type ServerSessionRepo struct {
	rdb goredis.UniversalClient
}

// NewClient abre la conexión y la verifica con PING.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// NewServerSessionRepository construye el repositorio sobre un cliente ya abierto.
func NewServerSessionRepository(rdb goredis.UniversalClient) *ServerSessionRepo {
	return &ServerSessionRepo{rdb: rdb}
}

// Save escribe el hash y renueva el TTL en la misma transacción.
func (r *ServerSessionRepo) Save(ctx context.Context, s *entity.ServerSession, ttl time.Duration) (time.Duration, error) {
	key := keyPrefix + s.ID
	var ttlCmd *goredis.DurationCmd
	_, err := r.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.HSet(ctx, key, map[string]interface{}{
			"user_id":    s.UserID,
			"created_at": s.CreatedAt.Unix(),
		})
		p.Expire(ctx, key, ttl)
		ttlCmd = p.TTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("guardar sesión %s: %w", s.ID, err)
	}
	left := ttlCmd.Val()
	if left <= 0 {
		left = ttl
	}
	return left, nil
}

// Get devuelve (nil, nil) si la clave no existe o ya expiró.
func (r *ServerSessionRepo) Get(ctx context.Context, id string) (*entity.ServerSession, error) {
	fields, err := r.rdb.HGetAll(ctx, keyPrefix+id).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("leer sesión %s: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	s := &entity.ServerSession{ID: id, UserID: fields["user_id"]}
	var created int64
	if _, err := fmt.Sscan(fields["created_at"], &created); err == nil {
		s.CreatedAt = time.Unix(created, 0)
	}
	return s, nil
}

// Delete revoca la sesión; no falla si no existía.
func (r *ServerSessionRepo) Delete(ctx context.Context, id string) error {
	if err := r.rdb.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("borrar sesión %s: %w", id, err)
	}
	return nil
}
