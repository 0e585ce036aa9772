package voucher

import "errors"

var (
	// ErrVoucherNotFound バウチャーが見つからないエラー
	ErrVoucherNotFound = errors.New("voucher not found")
	// ErrVoucherCodeExists バウチャーコードが既に存在するエラー
	ErrVoucherCodeExists = errors.New("voucher code already exists")
	// ErrUsageLimitReached バウチャーの使用上限に達しているエラー
	ErrUsageLimitReached = errors.New("voucher usage limit reached")
	// ErrVoucherHasUsage 使用履歴のあるバウチャーは物理削除できないエラー
	ErrVoucherHasUsage = errors.New("voucher has usage history")
)
