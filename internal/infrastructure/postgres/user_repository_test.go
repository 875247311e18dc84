package postgres_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/portal-movimiento/internal/domain"
	"github.com/jhoicas/portal-movimiento/internal/infrastructure/postgres"
)

// noDB falla el test si el repositorio llega a consultar la base.
type noDB struct{ t *testing.T }

func (q noDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	q.t.Error("no debía ejecutar SQL")
	return pgconn.CommandTag{}, nil
}

func (q noDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	q.t.Error("no debía consultar")
	return nil, nil
}

func (q noDB) QueryRow(context.Context, string, ...any) pgx.Row {
	q.t.Error("no debía consultar")
	return nil
}

func TestUserRepo_IDQueNoEsUUIDNoExiste(t *testing.T) {
	repo := postgres.NewUserRepository(noDB{t})

	u, err := repo.GetByID(context.Background(), "inexistente")
	require.NoError(t, err)
	assert.Nil(t, u)

	err = repo.AddGroup(context.Background(), "inexistente", "sector_stock")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
