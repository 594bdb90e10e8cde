package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisOptions_Defaults(t *testing.T) {
	opts := RedisOptions{}.withDefaults()
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, "missions:imports:", opts.KeyPrefix)

	custom := RedisOptions{Addr: "cache:6380", DB: 2, KeyPrefix: "x:"}.withDefaults()
	assert.Equal(t, "cache:6380", custom.Addr)
	assert.Equal(t, "x:", custom.KeyPrefix)
	assert.Equal(t, 2, custom.DB)
}

func TestRedisImportedRepo_Keys(t *testing.T) {
	// клиент подключается лениво, сервер не нужен
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	repo := NewRedisImportedRepoWithClient(client, "alarm:imports:")
	assert.Equal(t, "alarm:imports:worlds", repo.worldsKey())
	assert.Equal(t, "alarm:imports:order", repo.orderKey())
}

func TestMapRedisGetError(t *testing.T) {
	assert.NoError(t, mapRedisGetError("Tree", nil))
	assert.ErrorIs(t, mapRedisGetError("Tree", redis.Nil), ErrNotFound)

	cause := errors.New("connection reset")
	err := mapRedisGetError("Tree", cause)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), `"Tree"`)
}

func TestDeletedOrNotFound(t *testing.T) {
	assert.ErrorIs(t, deletedOrNotFound(0), ErrNotFound)
	assert.NoError(t, deletedOrNotFound(1))
}

func TestRedisImportedRepo_Contract(t *testing.T) {
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("Redis недоступен, пропускаем тест: %v", err)
	}

	prefix := "test:imports:" + uuid.NewString() + ":"
	repo := NewRedisImportedRepoWithClient(client, prefix)
	defer func() {
		client.Del(ctx, repo.worldsKey(), repo.orderKey())
		repo.Close()
	}()

	testRepoContract(t, repo)
	require.NoError(t, repo.Delete(ctx, "Tree"))
}
