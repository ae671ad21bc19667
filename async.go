package sequel

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Future 是异步执行的结果, Wait 可以被多次调用
type Future[T any] struct {
	g    errgroup.Group
	val  T
	done chan struct{}
}

func goFuture[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	f.g.Go(func() error {
		defer close(f.done)
		val, err := fn()
		f.val = val
		return err
	})
	return f
}

// Done 在执行结束时关闭
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

func (f *Future[T]) Wait() (T, error) {
	err := f.g.Wait()
	return f.val, err
}

func (c *Command) ExecuteNonQueryAsync(ctx context.Context) *Future[int64] {
	return goFuture(func() (int64, error) {
		return c.ExecuteNonQuery(ctx)
	})
}

func (c *Command) ExecuteScalarAsync(ctx context.Context) *Future[any] {
	return goFuture(func() (any, error) {
		return c.ExecuteScalar(ctx)
	})
}

func (c *Command) ExecuteReaderAsync(ctx context.Context) *Future[*Rows] {
	return goFuture(func() (*Rows, error) {
		return c.ExecuteReader(ctx)
	})
}

func (c *Command) ExecuteToDataTableAsync(ctx context.Context) *Future[*DataTable] {
	return goFuture(func() (*DataTable, error) {
		return c.ExecuteToDataTable(ctx)
	})
}

func (c *Command) ExecuteToDynamicListAsync(ctx context.Context) *Future[[]DynamicRow] {
	return goFuture(func() ([]DynamicRow, error) {
		return c.ExecuteToDynamicList(ctx)
	})
}

func ExecuteScalarAsAsync[T any](ctx context.Context, c *Command) *Future[T] {
	return goFuture(func() (T, error) {
		return ExecuteScalarAs[T](ctx, c)
	})
}

func ExecuteToListAsync[T any](ctx context.Context, c *Command) *Future[[]T] {
	return goFuture(func() ([]T, error) {
		return ExecuteToList[T](ctx, c)
	})
}

func ExecuteToListWithAsync[T any](ctx context.Context, c *Command, mapper RowMapper[T]) *Future[[]T] {
	return goFuture(func() ([]T, error) {
		return ExecuteToListWith(ctx, c, mapper)
	})
}
