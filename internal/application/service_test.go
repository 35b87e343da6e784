package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func Test_Apply_Commits(t *testing.T) {
	t.Parallel()
	f := newFakeFactory()
	repo := &fakeLevelRepo{}
	svc := NewLevelService(f, repo)

	err := svc.Apply(context.Background(), testSource, nil,
		InsertLevel(svc.Repo(), "meu"),
		UpdateLevel(svc.Repo(), 1, "nosso"),
	)
	require.NoError(t, err)
	require.Equal(t, []string{"nosso"}, f.db.names())
}

func Test_Apply_Idempotency_Conflict(t *testing.T) {
	t.Parallel()
	f := newFakeFactory()
	repo := &fakeLevelRepo{}
	svc := NewLevelService(f, repo, WithIdempotency(&fakeIdem{}))

	key := "ik-1"
	require.NoError(t, svc.Apply(context.Background(), testSource, &key, InsertLevel(repo, "meu")))
	err := svc.Apply(context.Background(), testSource, strPtr("ik-1"), InsertLevel(repo, "meu"))
	require.ErrorIs(t, err, ErrConflict)
	require.Equal(t, []string{"meu"}, f.db.names())
	require.Equal(t, 1, f.attempts)
}

type failingIdem struct{}

func (failingIdem) TryReserve(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func (failingIdem) Release(context.Context, string) error { return errors.New("redis down") }

func Test_Apply_FailureReleasesKey(t *testing.T) {
	t.Parallel()
	f := newFakeFactory()
	repo := &fakeLevelRepo{}
	svc := NewLevelService(f, repo, WithIdempotency(&fakeIdem{}))

	err := svc.Apply(context.Background(), testSource, strPtr("ik-2"), InsertLevel(repo, "meu"), Check("v", Fail("ERRO")))
	var te *TransactionError
	require.ErrorAs(t, err, &te)

	require.NoError(t, svc.Apply(context.Background(), testSource, strPtr("ik-2"), InsertLevel(repo, "meu")))
	require.Equal(t, []string{"meu"}, f.db.names())
}

func Test_Apply_IdempotencyStoreError(t *testing.T) {
	t.Parallel()
	f := newFakeFactory()
	svc := NewLevelService(f, &fakeLevelRepo{}, WithIdempotency(failingIdem{}))

	err := svc.Apply(context.Background(), testSource, strPtr("k"))
	require.Error(t, err)
	require.Zero(t, f.attempts)

	// An empty key skips the store.
	require.NoError(t, svc.Apply(context.Background(), testSource, strPtr("")))
}

func Test_Apply_LegacyRollbackOption(t *testing.T) {
	t.Parallel()
	f := newFakeFactory()
	svc := NewLevelService(f, &fakeLevelRepo{}, WithUnitOfWork(WithFreshConnRollback()))

	err := svc.Demo(context.Background(), testSource, Fail("ERRO"))
	var te *TransactionError
	require.ErrorAs(t, err, &te)
	require.Len(t, f.conns, 2)
}

func Test_List(t *testing.T) {
	t.Parallel()
	f := newFakeFactory()
	repo := &fakeLevelRepo{}
	svc := NewLevelService(f, repo)
	require.NoError(t, svc.Demo(context.Background(), testSource, nil))

	levels, err := svc.List(context.Background(), testSource)
	require.NoError(t, err)
	require.Len(t, levels, 2)
	require.Equal(t, "meu", levels[0].Name)
	require.Equal(t, 0, f.conns[1].begins)
	requireAllClosedOnce(t, f)
}

func Test_List_AcquireFailure(t *testing.T) {
	t.Parallel()
	f := newFakeFactory()
	f.acquireErr = errors.New("refused")
	_, err := NewLevelService(f, &fakeLevelRepo{}).List(context.Background(), testSource)
	var ce *ConnectionError
	require.ErrorAs(t, err, &ce)
}
