package testutil

import (
	"context"
	"errors"
	"time"
)

type MockRedisClient struct {
	ExistFunc  func(ctx context.Context, key string) (bool, error)
	DelFunc    func(ctx context.Context, key ...string) error
	SetFunc    func(ctx context.Context, key, value string) error
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetObjFunc func(ctx context.Context, key string, obj any, ttl time.Duration) error
	GetObjFunc func(ctx context.Context, key string, v any) error
}

func (c *MockRedisClient) Exist(ctx context.Context, key string) (bool, error) {
	if c.ExistFunc != nil {
		return c.ExistFunc(ctx, key)
	}

	return false, nil
}

func (c *MockRedisClient) Del(ctx context.Context, key ...string) error {
	if c.DelFunc != nil {
		return c.DelFunc(ctx, key...)
	}

	return nil
}

func (c *MockRedisClient) Set(ctx context.Context, key, value string) error {
	if c.SetFunc != nil {
		return c.SetFunc(ctx, key, value)
	}

	return nil
}

func (c *MockRedisClient) Get(ctx context.Context, key string) (string, error) {
	if c.GetFunc != nil {
		return c.GetFunc(ctx, key)
	}

	return "", errors.New("not found")
}

func (c *MockRedisClient) SetObj(ctx context.Context, key string, obj any, ttl time.Duration) error {
	if c.SetObjFunc != nil {
		return c.SetObjFunc(ctx, key, obj, ttl)
	}

	return nil
}

func (c *MockRedisClient) GetObj(ctx context.Context, key string, v any) error {
	if c.GetObjFunc != nil {
		return c.GetObjFunc(ctx, key, v)
	}

	return errors.New("not found")
}
