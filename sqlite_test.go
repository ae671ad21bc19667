package sequel

import (
	"context"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/startdusk/sequel/internal/test"
)

type SQLiteSuite struct {
	suite.Suite
	db *DB
	// keeper 保证共享内存数据库在整个测试期间不被销毁
	keeper interface{ Close() error }
}

func TestSQLite(t *testing.T) {
	suite.Run(t, &SQLiteSuite{})
}

func (s *SQLiteSuite) SetupSuite() {
	db, err := Open("sqlite3", "file:sequel_sqlite_suite?mode=memory&cache=shared",
		DBWithEventHandlers(NewEventHandlers()))
	require.NoError(s.T(), err)
	assert.Equal(s.T(), DialectSQLite, db.Dialect())
	s.db = db

	conn, err := db.Conn(context.Background())
	require.NoError(s.T(), err)
	s.keeper = conn
}

func (s *SQLiteSuite) TearDownSuite() {
	_ = s.keeper.Close()
	_ = s.db.Close()
}

func (s *SQLiteSuite) SetupTest() {
	_, err := s.db.Command().SetCommandText(test.SQLiteSchema).ExecuteNonQuery(context.Background())
	require.NoError(s.T(), err)
}

func (s *SQLiteSuite) TestInsertAndReadBack() {
	t := s.T()
	ctx := context.Background()
	customers := test.NewCustomers()

	ids, err := ExecuteToList[int64](ctx, GenerateInserts(s.db.Command(), customers))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)

	got, err := ExecuteToList[test.Customer](ctx, s.db.Command().
		SetCommandText("SELECT * FROM Customer WHERE CustomerId IN (@CustomerIds) ORDER BY CustomerId").
		AddParameters("CustomerIds", ids))
	require.NoError(t, err)
	require.Len(t, got, len(customers))
	for i, c := range customers {
		assert.Equal(t, test.Ptr(ids[i]), got[i].CustomerId)
		assert.Equal(t, c.FirstName, got[i].FirstName)
		assert.Equal(t, c.LastName, got[i].LastName)
		assert.True(t, c.DateOfBirth.Equal(got[i].DateOfBirth), "%v != %v", c.DateOfBirth, got[i].DateOfBirth)
	}
}

func (s *SQLiteSuite) TestDataTable() {
	t := s.T()
	ctx := context.Background()
	_, err := ExecuteToList[int64](ctx, GenerateInserts(s.db.Command(), []test.SuperHero{
		{Name: "Superman", Alias: test.Ptr("Clark Kent")},
		{Name: "Batman"},
	}))
	require.NoError(t, err)

	table, err := s.db.Command().
		SetCommandText("SELECT SuperHeroId, Name, Alias FROM SuperHero ORDER BY SuperHeroId").
		ExecuteToDataTable(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"SuperHeroId", "Name", "Alias"}, table.ColumnNames())
	require.Len(t, table.Rows, 2)
	assert.EqualValues(t, int64(1), table.Rows[0].Value(0))
	assert.EqualValues(t, "Superman", table.Rows[0].Value(1))
	assert.EqualValues(t, "Clark Kent", table.Rows[0].Value(2))
	assert.Nil(t, table.Rows[1].Value(2))

	cnt, err := ExecuteScalarAs[int](ctx, s.db.Command().
		SetCommandText("SELECT COUNT(*) FROM SuperHero WHERE Name = @Name OR Alias = @Name").
		AddParameter("Name", "Superman"))
	require.NoError(t, err)
	assert.Equal(t, 1, cnt)
}

func (s *SQLiteSuite) TestKeepConnectionOpen() {
	t := s.T()
	ctx := context.Background()
	cmd := s.db.Command().
		SetCommandText("INSERT INTO SuperHero (Name) VALUES (@Name)").
		AddParameter("Name", "Wonder Woman").
		KeepConnectionOpen(true)
	_, err := cmd.ExecuteNonQuery(ctx)
	require.NoError(t, err)
	require.NotNil(t, cmd.Conn())

	// last_insert_rowid 是连接级别的, 只有同一个连接才能读到
	id, err := ExecuteScalarAs[int64](ctx, cmd.SetCommandText("SELECT last_insert_rowid()"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	require.NoError(t, cmd.Close())
	assert.Nil(t, cmd.Conn())
}

func (s *SQLiteSuite) TestTransaction() {
	t := s.T()
	ctx := context.Background()
	err := s.db.DoTx(ctx, func(ctx context.Context, tx *Tx) error {
		_, err := ExecuteToList[int64](ctx, GenerateInserts(tx.Command(), []test.SuperHero{{Name: "Flash"}}))
		if err != nil {
			return err
		}
		// 违反 NOT NULL 约束, 整个事务回滚
		_, err = tx.Command().SetCommandText("INSERT INTO SuperHero (Name) VALUES (NULL)").ExecuteNonQuery(ctx)
		return err
	}, nil)
	require.Error(t, err)

	cnt, err := ExecuteScalarAs[int](ctx, s.db.Command().SetCommandText("SELECT COUNT(*) FROM SuperHero"))
	require.NoError(t, err)
	assert.Equal(t, 0, cnt)
}

// 表名和类型名不同时, 主键按 <类型名>Id 识别
func (s *SQLiteSuite) TestInsertIntoNamedTable() {
	t := s.T()
	ctx := context.Background()
	_, err := s.db.Command().SetCommandText(`
DROP TABLE IF EXISTS Person;
CREATE TABLE Person
(
    CustomerId      INTEGER PRIMARY KEY AUTOINCREMENT,
    FirstName       TEXT     NOT NULL,
    LastName        TEXT     NOT NULL,
    DateOfBirth     DATETIME NOT NULL
);`).ExecuteNonQuery(ctx)
	require.NoError(t, err)

	ids, err := ExecuteToList[int64](ctx, GenerateInserts(s.db.Command(), test.NewCustomers(), "Person"))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)

	cnt, err := ExecuteScalarAs[int](ctx, s.db.Command().SetCommandText("SELECT COUNT(*) FROM Person"))
	require.NoError(t, err)
	assert.Equal(t, 3, cnt)
}

func (s *SQLiteSuite) TestGenerateInsertsTwice() {
	t := s.T()
	ctx := context.Background()
	cmd := GenerateInserts(s.db.Command(), []test.SuperHero{{Name: "Superman"}})
	cmd = GenerateInserts(cmd, []test.SuperHero{{Name: "Batman"}})
	ids, err := ExecuteToList[int64](ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)

	names, err := ExecuteToList[string](ctx, s.db.Command().
		SetCommandText("SELECT Name FROM SuperHero ORDER BY SuperHeroId"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Superman", "Batman"}, names)
}
