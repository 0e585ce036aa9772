package service

import (
	"fmt"
	"time"

	"voucher-server/internal/domain/voucher"
)

// OrderContext バウチャー適用対象の注文コンテキスト
type OrderContext struct {
	OrderValue   int64  // 注文金額（通貨最小単位）
	RestaurantID string // 注文対象店舗（任意）
}

// ValidationResult バウチャー検証結果
// ビジネスルール違反はエラーではなく通常の結果として表現する
type ValidationResult struct {
	IsValid        bool
	Voucher        *voucher.Voucher // 有効な場合のみ設定
	DiscountAmount int64            // 無効な場合は0
	FinalAmount    int64            // 無効な場合はOrderValueと等しい
	ErrorMessage   string           // 無効な場合の理由
}

// VoucherValidator バウチャー検証ドメインサービス
// 状態を一切変更しない純粋なルール評価
type VoucherValidator struct{}

// NewVoucherValidator 新しいVoucherValidatorを作成
func NewVoucherValidator() *VoucherValidator {
	return &VoucherValidator{}
}

// Validate バウチャーの適用可否を判定し、割引額を計算する
// ルールは短絡評価され、最初に違反したルールの理由が返る
func (s *VoucherValidator) Validate(v *voucher.Voucher, order OrderContext, now time.Time) *ValidationResult {
	if v == nil {
		return s.invalid(order, "Voucher not found")
	}
	if !v.IsActive() {
		return s.invalid(order, "Voucher is not active")
	}
	if now.Before(v.StartDate()) {
		return s.invalid(order, "Voucher is not yet valid")
	}
	if now.After(v.EndDate()) {
		return s.invalid(order, "Voucher has expired")
	}
	if v.UsageLimitReached() {
		return s.invalid(order, "Voucher usage limit reached")
	}
	if !v.AppliesToRestaurant(order.RestaurantID) {
		return s.invalid(order, "Voucher is not valid for this restaurant")
	}
	if order.OrderValue < v.MinOrderValue() {
		return s.invalid(order, fmt.Sprintf("Minimum order value is %d", v.MinOrderValue()))
	}

	discount := s.computeDiscount(v, order.OrderValue)

	return &ValidationResult{
		IsValid:        true,
		Voucher:        v,
		DiscountAmount: discount,
		FinalAmount:    order.OrderValue - discount,
	}
}

// computeDiscount 割引額を計算する
func (s *VoucherValidator) computeDiscount(v *voucher.Voucher, orderValue int64) int64 {
	switch v.DiscountType() {
	case voucher.DiscountTypePercentage:
		discount := orderValue * v.DiscountValue() / 100
		if v.MaxDiscount() > 0 && discount > v.MaxDiscount() {
			discount = v.MaxDiscount()
		}
		return discount
	case voucher.DiscountTypeFixedAmount:
		// 注文金額を超える割引は注文金額で打ち切る
		if v.DiscountValue() > orderValue {
			return orderValue
		}
		return v.DiscountValue()
	default:
		return 0
	}
}

// invalid 無効結果を作成する
func (s *VoucherValidator) invalid(order OrderContext, message string) *ValidationResult {
	return &ValidationResult{
		IsValid:        false,
		Voucher:        nil,
		DiscountAmount: 0,
		FinalAmount:    order.OrderValue,
		ErrorMessage:   message,
	}
}
