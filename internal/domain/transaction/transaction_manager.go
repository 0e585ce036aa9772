package transaction

import (
	"context"
	"database/sql"
)

// TransactionManager トランザクション管理インターフェース
// 引き換え処理（使用回数の更新と使用履歴の追加）を単一トランザクションで実行するために使用する
type TransactionManager interface {
	// WithTransaction トランザクション内で関数を実行
	WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error
}
