package voucher

import (
	"fmt"
)

// DiscountType 割引タイプを表す値オブジェクト
type DiscountType string

const (
	DiscountTypePercentage  DiscountType = "percentage"   // 割合割引（discountValueはパーセント値）
	DiscountTypeFixedAmount DiscountType = "fixed_amount" // 定額割引（discountValueは金額）
)

// NewDiscountType 新しいDiscountTypeを作成
func NewDiscountType(s string) (DiscountType, error) {
	switch s {
	case "percentage", "fixed_amount":
		return DiscountType(s), nil
	default:
		return "", fmt.Errorf("invalid discount type: %s", s)
	}
}

// String 文字列表現を返す
func (dt DiscountType) String() string {
	return string(dt)
}

// Valid 有効な割引タイプかどうかを返す
func (dt DiscountType) Valid() bool {
	switch dt {
	case DiscountTypePercentage, DiscountTypeFixedAmount:
		return true
	default:
		return false
	}
}
