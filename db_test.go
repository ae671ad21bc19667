package sequel

import (
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/startdusk/sequel/model"
)

func TestOpen(t *testing.T) {
	db, err := Open("sqlite3", "file:sequel_open?mode=memory&cache=shared")
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, DialectSQLite, db.Dialect())

	// 显式指定的方言优先
	db2, err := Open("sqlite3", "file:sequel_open?mode=memory&cache=shared", DBWithDialect(DialectMySQL))
	require.NoError(t, err)
	defer db2.Close()
	assert.Equal(t, DialectMySQL, db2.Dialect())

	_, err = Open("no-such-driver", "")
	assert.Error(t, err)
	assert.Panics(t, func() {
		MustOpen("no-such-driver", "")
	})
}

func TestOpenDB_Options(t *testing.T) {
	r := model.NewRegistry()
	handlers := NewEventHandlers()
	logger := zap.NewExample()
	db, _, _ := newMockDB(t, DBWithRegistry(r), DBWithEventHandlers(handlers), DBWithLogger(logger), DBUseUnsafe())
	assert.Same(t, r, db.r)
	assert.Same(t, handlers, db.handlers)
	assert.Same(t, logger, db.logger)
	assert.Equal(t, DialectPostgreSQL, db.Dialect())

	cmd := db.Command()
	assert.NotEmpty(t, cmd.ID())
	assert.NotEqual(t, cmd.ID(), db.Command().ID())
}
