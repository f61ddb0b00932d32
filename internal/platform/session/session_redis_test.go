package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"demotrade_backend/internal/feature/session/domain/entity"
	"demotrade_backend/internal/feature/session/usecase"
)

var created = time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

func testSession() *entity.Session {
	return &entity.Session{
		ID:        "s-1",
		UserAgent: "Mozilla/5.0",
		IPAddress: "192.0.2.1",
		CreatedAt: created,
		ExpiresAt: created.Add(24 * time.Hour),
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestNewSessionRedis_DefaultPrefix(t *testing.T) {
	t.Parallel()

	rdb, _ := redismock.NewClientMock()
	assert.Equal(t, "session:abc", NewSessionRedis(rdb, "").sessionKey("abc"))
	assert.Equal(t, "demo:abc", NewSessionRedis(rdb, "demo").sessionKey("abc"))
}

// TestSessionRedis_Create checks that the key TTL matches the session lifetime.
func TestSessionRedis_Create(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	repo := NewSessionRedis(rdb, "")
	s := testSession()

	mock.ExpectSet("session:s-1", mustJSON(t, s), 24*time.Hour).SetVal("OK")

	require.NoError(t, repo.Create(context.Background(), s))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRedis_CreateAlreadyExpired(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	repo := NewSessionRedis(rdb, "")
	s := testSession()
	s.ExpiresAt = s.CreatedAt

	assert.Error(t, repo.Create(context.Background(), s))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRedis_FindByID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		setup   func(mock redismock.ClientMock)
		wantErr error
		anyErr  bool
	}{
		{
			name: "found",
			setup: func(mock redismock.ClientMock) {
				mock.ExpectGet("session:s-1").SetVal(string(mustJSON(t, testSession())))
			},
		},
		{
			name: "missing key",
			setup: func(mock redismock.ClientMock) {
				mock.ExpectGet("session:s-1").RedisNil()
			},
			wantErr: usecase.ErrSessionNotFound,
		},
		{
			name: "corrupt payload",
			setup: func(mock redismock.ClientMock) {
				mock.ExpectGet("session:s-1").SetVal("{not json")
			},
			anyErr: true,
		},
		{
			name: "redis failure",
			setup: func(mock redismock.ClientMock) {
				mock.ExpectGet("session:s-1").SetErr(errors.New("connection refused"))
			},
			anyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rdb, mock := redismock.NewClientMock()
			tt.setup(mock)

			got, err := NewSessionRedis(rdb, "").FindByID(context.Background(), "s-1")
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.anyErr:
				assert.Error(t, err)
				assert.False(t, errors.Is(err, usecase.ErrSessionNotFound))
			default:
				require.NoError(t, err)
				assert.Equal(t, "s-1", got.ID)
				assert.Equal(t, "Mozilla/5.0", got.UserAgent)
				assert.True(t, got.ExpiresAt.Equal(created.Add(24*time.Hour)))
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// TestSessionRedis_Revoke checks that revocation keeps the remaining TTL and cannot happen twice.
func TestSessionRedis_Revoke(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	repo := NewSessionRedis(rdb, "")
	at := created.Add(time.Hour)

	revoked := testSession()
	revoked.RevokedAt = &at

	mock.ExpectGet("session:s-1").SetVal(string(mustJSON(t, testSession())))
	mock.ExpectSet("session:s-1", mustJSON(t, revoked), redis.KeepTTL).SetVal("OK")

	require.NoError(t, repo.Revoke(context.Background(), "s-1", at))
	assert.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectGet("session:s-1").SetVal(string(mustJSON(t, revoked)))
	assert.ErrorIs(t, repo.Revoke(context.Background(), "s-1", at), usecase.ErrSessionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRedis_DeleteExpired(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	n, err := NewSessionRedis(rdb, "").DeleteExpired(context.Background(), time.Now())

	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
