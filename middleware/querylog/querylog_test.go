package querylog

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/startdusk/sequel"
)

func TestQueryLog(t *testing.T) {
	var queries []string
	var args [][]any
	m := NewMiddlewareBuilder(func(q string, as []any) {
		queries = append(queries, q)
		args = append(args, as)
	})

	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer mockDB.Close()
	db, err := sequel.OpenDB(mockDB,
		sequel.DBWithMiddlewares(m.Build()),
		sequel.DBWithEventHandlers(sequel.NewEventHandlers()))
	require.NoError(t, err)

	mock.ExpectQuery("SELECT * FROM Customer WHERE CustomerId = $1").
		WithArgs(12).
		WillReturnRows(sqlmock.NewRows([]string{"CustomerId"}).AddRow(12))
	_, err = db.Command().
		SetCommandText("SELECT * FROM Customer WHERE CustomerId = @CustomerId").
		AddParameter("@CustomerId", 12).
		ExecuteToDataTable(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"SELECT * FROM Customer WHERE CustomerId = $1"}, queries)
	assert.Equal(t, [][]any{{12}}, args)

	queries, args = nil, nil
	mock.ExpectQuery("INSERT INTO Customer (FirstName) VALUES ($1) RETURNING CustomerId;").
		WithArgs("Clark").
		WillReturnRows(sqlmock.NewRows([]string{"CustomerId"}).AddRow(1))
	mock.ExpectQuery("INSERT INTO Customer (FirstName) VALUES ($1) RETURNING CustomerId;").
		WithArgs("Bruce").
		WillReturnRows(sqlmock.NewRows([]string{"CustomerId"}).AddRow(2))
	_, err = db.Command().
		GenerateInserts([]sequel.Record{
			sequel.FieldBag{"FirstName": "Clark"},
			sequel.FieldBag{"FirstName": "Bruce"},
		}, "Customer").
		ExecuteToDataTable(context.Background())
	require.NoError(t, err)
	assert.Len(t, queries, 2)
	assert.Equal(t, [][]any{{"Clark"}, {"Bruce"}}, args)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryLog_DefaultLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	defer zap.ReplaceGlobals(zap.New(core))()

	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer mockDB.Close()
	db, err := sequel.OpenDB(mockDB,
		sequel.DBWithMiddlewares(NewMiddlewareBuilder(nil).Build()),
		sequel.DBWithEventHandlers(sequel.NewEventHandlers()))
	require.NoError(t, err)

	mock.ExpectExec("DELETE FROM Customer").WillReturnResult(sqlmock.NewResult(0, 3))
	_, err = db.Command().SetCommandText("DELETE FROM Customer").ExecuteNonQuery(context.Background())
	require.NoError(t, err)

	entries := logs.FilterMessage("sequel: query").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "DELETE FROM Customer", entries[0].ContextMap()["sql"])
}
