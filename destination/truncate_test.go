package destination_test

import (
	"context"
	"errors"
	"testing"

	"github.com/datazip-inc/rowsync/constants"
	"github.com/datazip-inc/rowsync/destination"
	"github.com/datazip-inc/rowsync/utils/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var truncateSetup = []string{
	"CREATE TABLE tgt (id INTEGER PRIMARY KEY, name TEXT)",
	"INSERT INTO tgt VALUES (1, 'a'), (2, 'b')",
}

func TestTruncateGuard(t *testing.T) {
	ctx := context.Background()

	t.Run("confirmed", func(t *testing.T) {
		conn, cfg := testutils.OpenSQLite(t, constants.Target, truncateSetup...)
		log, buf := testutils.Logger()

		var prompt string
		confirmer := destination.ConfirmerFunc(func(_ context.Context, p string) (bool, error) {
			prompt = p
			return true, nil
		})

		require.NoError(t, destination.NewTruncateGuard(confirmer, log).Truncate(ctx, conn, "DELETE FROM tgt"))
		assert.Contains(t, prompt, "DELETE FROM tgt")
		assert.Empty(t, testutils.QueryRows(t, cfg, "tgt"))
		assert.Contains(t, buf.String(), "truncate executed")
	})

	t.Run("declined", func(t *testing.T) {
		conn, cfg := testutils.OpenSQLite(t, constants.Target, truncateSetup...)
		log, _ := testutils.Logger()

		err := destination.NewTruncateGuard(destination.FlagConfirmer(false), log).Truncate(ctx, conn, "DELETE FROM tgt")
		assert.ErrorIs(t, err, constants.ErrTruncateNotConfirmed)
		assert.Len(t, testutils.QueryRows(t, cfg, "tgt"), 2)
	})

	t.Run("nil_confirmer_declines", func(t *testing.T) {
		conn, cfg := testutils.OpenSQLite(t, constants.Target, truncateSetup...)
		log, _ := testutils.Logger()

		err := destination.NewTruncateGuard(nil, log).Truncate(ctx, conn, "DELETE FROM tgt")
		assert.ErrorIs(t, err, constants.ErrTruncateNotConfirmed)
		assert.Len(t, testutils.QueryRows(t, cfg, "tgt"), 2)
	})

	t.Run("confirmer_error", func(t *testing.T) {
		conn, _ := testutils.OpenSQLite(t, constants.Target, truncateSetup...)
		log, _ := testutils.Logger()
		boom := errors.New("no terminal")

		err := destination.NewTruncateGuard(destination.ConfirmerFunc(func(context.Context, string) (bool, error) {
			return false, boom
		}), log).Truncate(ctx, conn, "DELETE FROM tgt")
		assert.ErrorIs(t, err, constants.ErrTruncateNotConfirmed)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("empty_query_is_noop", func(t *testing.T) {
		conn, cfg := testutils.OpenSQLite(t, constants.Target, truncateSetup...)
		log, buf := testutils.Logger()

		called := false
		confirmer := destination.ConfirmerFunc(func(context.Context, string) (bool, error) {
			called = true
			return true, nil
		})

		require.NoError(t, destination.NewTruncateGuard(confirmer, log).Truncate(ctx, conn, "  "))
		assert.False(t, called)
		assert.Len(t, testutils.QueryRows(t, cfg, "tgt"), 2)
		assert.Contains(t, buf.String(), "WRN")
	})

	t.Run("sql_failure", func(t *testing.T) {
		conn, _ := testutils.OpenSQLite(t, constants.Target, truncateSetup...)
		log, buf := testutils.Logger()

		err := destination.NewTruncateGuard(destination.FlagConfirmer(true), log).Truncate(ctx, conn, "DELETE FROM missing")
		assert.ErrorIs(t, err, constants.ErrTruncate)
		assert.Contains(t, buf.String(), "DELETE FROM missing")
	})
}
