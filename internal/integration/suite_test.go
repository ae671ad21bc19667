//go:build integration

package integration

import (
	"context"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/startdusk/sequel"
	"github.com/startdusk/sequel/internal/test"
)

// Suite 是各个数据库共用的测试, 子类负责准备 driver, dsn 和 schema
type Suite struct {
	suite.Suite

	driver string
	dsn    string
	schema string

	db *sequel.DB
}

func (s *Suite) SetupSuite() {
	db, err := sequel.Open(s.driver, s.dsn, sequel.DBWithEventHandlers(sequel.NewEventHandlers()))
	require.NoError(s.T(), err)
	s.db = db
}

func (s *Suite) TearDownSuite() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

// 每次执行开始前, 重建表
func (s *Suite) SetupTest() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := s.db.Command().SetCommandText(s.schema).ExecuteNonQuery(ctx)
	require.NoError(s.T(), err)
}

func (s *Suite) TestGenerateInserts() {
	t := s.T()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	customers := test.NewCustomers()
	ids, err := sequel.ExecuteToList[int64](ctx, sequel.GenerateInserts(s.db.Command(), customers))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)

	got, err := sequel.ExecuteToList[test.Customer](ctx, s.db.Command().
		SetCommandText("SELECT * FROM Customer WHERE CustomerId IN (@CustomerIds) ORDER BY CustomerId").
		AddParameters("CustomerIds", ids))
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, c := range customers {
		assert.Equal(t, ids[i], *got[i].CustomerId)
		assert.Equal(t, c.FirstName, got[i].FirstName)
		assert.Equal(t, c.LastName, got[i].LastName)
		assert.True(t, c.DateOfBirth.Equal(got[i].DateOfBirth))
	}
}

func (s *Suite) TestGenerateInserts_AnonymousType() {
	t := s.T()
	records := []struct {
		FirstName string
	}{{FirstName: "Clark"}}

	_, err := sequel.ExecuteToList[int64](context.Background(), sequel.GenerateInserts(s.db.Command(), records))
	assert.ErrorIs(t, err, sequel.ErrArgument)

	cnt, err := sequel.ExecuteScalarAs[int](context.Background(),
		s.db.Command().SetCommandText("SELECT COUNT(*) FROM Customer"))
	require.NoError(t, err)
	assert.Equal(t, 0, cnt)
}

func (s *Suite) TestExecuteToDynamicList() {
	t := s.T()
	ctx := context.Background()
	_, err := sequel.ExecuteToList[int64](ctx, s.db.Command().GenerateInserts([]sequel.Record{
		sequel.FieldBag{"Name": "Superman", "Alias": "Clark Kent"},
		sequel.FieldBag{"Name": "Batman"},
	}, "SuperHero"))
	require.NoError(t, err)

	list, err := s.db.Command().
		SetCommandText("SELECT Name, Alias FROM SuperHero ORDER BY SuperHeroId").
		ExecuteToDynamicList(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, row := range list {
		assert.Len(t, row, 2)
	}
}

func (s *Suite) TestKeepConnectionOpen() {
	t := s.T()
	cmd := s.db.Command().KeepConnectionOpen(true)
	defer cmd.Close()

	_, err := cmd.SetCommandText("SELECT 1").ExecuteScalar(context.Background())
	require.NoError(t, err)
	conn := cmd.Conn()
	require.NotNil(t, conn)
	require.NoError(t, conn.PingContext(context.Background()))
}
