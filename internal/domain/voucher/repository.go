package voucher

import (
	"context"
	"database/sql"
	"time"
)

// ListFilter バウチャー一覧の絞り込み条件
type ListFilter struct {
	RestaurantID string       // 空文字 = 絞り込みなし
	IsActive     *bool        // nil = 絞り込みなし
	DiscountType DiscountType // 空文字 = 絞り込みなし
	Code         string       // 部分一致
	Limit        int
	Offset       int
	SortBy       string // created_at, updated_at, code, start_date, end_date, used_count
	SortOrder    string // asc, desc
}

// VoucherRepository バウチャーリポジトリインターフェース
type VoucherRepository interface {
	// Create バウチャーを新規作成（コード重複時はErrVoucherCodeExists）
	Create(ctx context.Context, v *Voucher) error

	// Update バウチャーの可変フィールドを保存
	Update(ctx context.Context, v *Voucher) error

	// FindByID IDでバウチャーを取得
	FindByID(ctx context.Context, id string) (*Voucher, error)

	// FindByCode コードでバウチャーを取得
	FindByCode(ctx context.Context, code string) (*Voucher, error)

	// FindAll 絞り込み条件付きで一覧と総件数を取得
	FindAll(ctx context.Context, filter ListFilter) ([]*Voucher, int, error)

	// FindActiveByRestaurant 指定店舗で現在利用可能なバウチャーを取得
	// 全店舗有効（restaurant_idなし）のバウチャーも含む
	FindActiveByRestaurant(ctx context.Context, restaurantID string, now time.Time) ([]*Voucher, error)

	// Delete バウチャーを物理削除
	Delete(ctx context.Context, id string) error

	// IncrementUsage トランザクション内で使用回数を条件付きインクリメントし、更新後の使用回数を返す
	// usage_limitに達している場合はErrUsageLimitReached
	IncrementUsage(ctx context.Context, tx *sql.Tx, voucherID string) (int, error)

	// SaveUsage トランザクション内で使用履歴を保存
	SaveUsage(ctx context.Context, tx *sql.Tx, usage *VoucherUsage) error

	// CountUsage バウチャーの使用履歴件数を取得
	CountUsage(ctx context.Context, voucherID string) (int, error)

	// FindUsage バウチャーの使用履歴を新しい順に取得
	FindUsage(ctx context.Context, voucherID string, limit, offset int) ([]*VoucherUsage, error)
}
