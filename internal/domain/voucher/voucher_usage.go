package voucher

import (
	"time"
)

// VoucherUsage バウチャー使用履歴エンティティ
// 引き換え成功時にのみ作成され、以後更新・削除されない（追記専用の台帳）
type VoucherUsage struct {
	usageID   string
	voucherID string
	userID    string
	orderID   string // 任意（決済ゲートウェイ経由の場合に設定）
	usedAt    time.Time
}

// NewVoucherUsage 新しいVoucherUsageエンティティを作成
func NewVoucherUsage(usageID, voucherID, userID, orderID string) *VoucherUsage {
	return &VoucherUsage{
		usageID:   usageID,
		voucherID: voucherID,
		userID:    userID,
		orderID:   orderID,
		usedAt:    time.Now(),
	}
}

// UsageID 使用履歴IDを返す
func (u *VoucherUsage) UsageID() string {
	return u.usageID
}

// VoucherID バウチャーIDを返す
func (u *VoucherUsage) VoucherID() string {
	return u.voucherID
}

// UserID ユーザーIDを返す
func (u *VoucherUsage) UserID() string {
	return u.userID
}

// OrderID 注文IDを返す
func (u *VoucherUsage) OrderID() string {
	return u.orderID
}

// UsedAt 使用日時を返す
func (u *VoucherUsage) UsedAt() time.Time {
	return u.usedAt
}

// SetUsedAt 使用日時を設定（リポジトリから読み込んだ際に使用）
func (u *VoucherUsage) SetUsedAt(t time.Time) {
	u.usedAt = t
}
