package ledgers

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestTxErrorMapsConcurrentOrderSaves(t *testing.T) {
	require.ErrorIs(t, txError(&pgconn.PgError{Code: "40001"}), ErrBusy)
	require.ErrorIs(t, txError(&pgconn.PgError{Code: "40P01"}), ErrBusy)
	require.NoError(t, txError(nil))

	other := errors.New("ledgers: apply order: boom")
	require.Same(t, other, txError(other))
}
