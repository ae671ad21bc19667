package safedml

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/startdusk/sequel"
)

func TestMiddlewareBuilder_Build(t *testing.T) {
	cases := []struct {
		name    string
		builder *MiddlewareBuilder
		sql     string
		// allowed 为 true 时 SQL 会到达数据库
		allowed bool
		wantErr error
	}{
		{
			name:    "select without where",
			builder: NewMiddlewareBuilder(),
			sql:     "SELECT * FROM Customer",
			allowed: true,
		},
		{
			name:    "update with where",
			builder: NewMiddlewareBuilder(),
			sql:     "UPDATE Customer SET FirstName = 'Clark' WHERE CustomerId = 1",
			allowed: true,
		},
		{
			name:    "update without where",
			builder: NewMiddlewareBuilder(),
			sql:     "UPDATE Customer SET FirstName = 'Clark'",
			wantErr: ErrMissingWhere,
		},
		{
			name:    "lower case delete without where",
			builder: NewMiddlewareBuilder(),
			sql:     "  delete from Customer",
			wantErr: ErrMissingWhere,
		},
		{
			name:    "delete banned",
			builder: NewMiddlewareBuilder().BanDelete(),
			sql:     "DELETE FROM Customer WHERE CustomerId = 1",
			wantErr: ErrDeleteBanned,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
			require.NoError(t, err)
			defer mockDB.Close()

			var failures int
			handlers := sequel.NewEventHandlers()
			handlers.RegisterUnhandledException(func(err error, cmd *sequel.Command) {
				failures++
			})
			db, err := sequel.OpenDB(mockDB,
				sequel.DBWithMiddlewares(c.builder.Build()),
				sequel.DBWithEventHandlers(handlers))
			require.NoError(t, err)

			if c.allowed {
				mock.ExpectExec(c.sql).WillReturnResult(sqlmock.NewResult(0, 1))
			}
			_, err = db.Command().SetCommandText(c.sql).ExecuteNonQuery(context.Background())
			if c.wantErr != nil {
				assert.ErrorIs(t, err, c.wantErr)
				assert.Equal(t, 1, failures)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
