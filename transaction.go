package sequel

import (
	"database/sql"
	"errors"
)

type Tx struct {
	tx *sql.Tx
	db *DB
}

// Command 创建一条在该事务中执行的命令
func (t *Tx) Command() *Command {
	return newCommand(t.db).SetTransaction(t)
}

func (t *Tx) Commit() error {
	return t.tx.Commit()
}

func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// 尝试回滚, 如果此时事务已经提交了, 或者被回滚掉了, 那么
// 就会得到sql.ErrTxDone错误, 这时候忽略这个错误就好
func (t *Tx) RollbackIfNotCommit() error {
	err := t.tx.Rollback()
	if !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}
