package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voucher-server/internal/domain/voucher"
)

func TestVoucherValidator_Validate(t *testing.T) {
	validator := NewVoucherValidator()
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	start := now.Add(-7 * 24 * time.Hour)
	end := now.Add(7 * 24 * time.Hour)

	// SAVE10: 10%割引、上限50000、最低注文100000
	save10 := voucher.MustNewVoucher("vch_save10", "SAVE10", voucher.DiscountTypePercentage, 10, 100000, 50000, start, end, "", 0)

	tests := []struct {
		name             string
		voucher          *voucher.Voucher
		order            OrderContext
		wantValid        bool
		wantDiscount     int64
		wantFinal        int64
		wantErrorMessage string
	}{
		{
			name:             "異常系: バウチャーが存在しない",
			voucher:          nil,
			order:            OrderContext{OrderValue: 100000},
			wantValid:        false,
			wantDiscount:     0,
			wantFinal:        100000,
			wantErrorMessage: "Voucher not found",
		},
		{
			name: "異常系: 無効化されたバウチャー",
			voucher: func() *voucher.Voucher {
				v := voucher.MustNewVoucher("vch_1", "OFF", voucher.DiscountTypePercentage, 10, 0, 0, start, end, "", 0)
				v.Deactivate()
				return v
			}(),
			order:            OrderContext{OrderValue: 100000},
			wantValid:        false,
			wantFinal:        100000,
			wantErrorMessage: "Voucher is not active",
		},
		{
			name:             "異常系: 有効期間前",
			voucher:          voucher.MustNewVoucher("vch_2", "FUTURE", voucher.DiscountTypePercentage, 10, 0, 0, now.Add(24*time.Hour), end.Add(48*time.Hour), "", 0),
			order:            OrderContext{OrderValue: 100000},
			wantValid:        false,
			wantFinal:        100000,
			wantErrorMessage: "Voucher is not yet valid",
		},
		{
			name:             "異常系: 期限切れ",
			voucher:          voucher.MustNewVoucher("vch_3", "PAST", voucher.DiscountTypePercentage, 10, 0, 0, start.Add(-48*time.Hour), now.Add(-24*time.Hour), "", 0),
			order:            OrderContext{OrderValue: 100000},
			wantValid:        false,
			wantFinal:        100000,
			wantErrorMessage: "Voucher has expired",
		},
		{
			name: "異常系: 使用上限到達（usage_limit=1, used_count=1）",
			voucher: func() *voucher.Voucher {
				v := voucher.MustNewVoucher("vch_4", "ONEUSE", voucher.DiscountTypePercentage, 10, 0, 0, start, end, "", 1)
				v.SetUsedCount(1)
				return v
			}(),
			order:            OrderContext{OrderValue: 100000},
			wantValid:        false,
			wantFinal:        100000,
			wantErrorMessage: "Voucher usage limit reached",
		},
		{
			name:             "異常系: 対象外の店舗",
			voucher:          voucher.MustNewVoucher("vch_5", "SCOPED", voucher.DiscountTypePercentage, 10, 0, 0, start, end, "rest_1", 0),
			order:            OrderContext{OrderValue: 100000, RestaurantID: "rest_2"},
			wantValid:        false,
			wantFinal:        100000,
			wantErrorMessage: "Voucher is not valid for this restaurant",
		},
		{
			name:             "異常系: 最低注文金額未満",
			voucher:          save10,
			order:            OrderContext{OrderValue: 80000},
			wantValid:        false,
			wantFinal:        80000,
			wantErrorMessage: "Minimum order value is 100000",
		},
		{
			name:         "正常系: percentage 割引が上限でクランプされる",
			voucher:      save10,
			order:        OrderContext{OrderValue: 500000},
			wantValid:    true,
			wantDiscount: 50000,
			wantFinal:    450000,
		},
		{
			name:         "正常系: percentage 割引（上限未満）",
			voucher:      save10,
			order:        OrderContext{OrderValue: 200000},
			wantValid:    true,
			wantDiscount: 20000,
			wantFinal:    180000,
		},
		{
			name:         "正常系: 上限なし percentage 割引",
			voucher:      voucher.MustNewVoucher("vch_6", "NOCAP", voucher.DiscountTypePercentage, 25, 0, 0, start, end, "", 0),
			order:        OrderContext{OrderValue: 1000000},
			wantValid:    true,
			wantDiscount: 250000,
			wantFinal:    750000,
		},
		{
			name:         "正常系: fixed_amount 割引",
			voucher:      voucher.MustNewVoucher("vch_7", "FLAT20K", voucher.DiscountTypeFixedAmount, 20000, 0, 0, start, end, "", 0),
			order:        OrderContext{OrderValue: 100000},
			wantValid:    true,
			wantDiscount: 20000,
			wantFinal:    80000,
		},
		{
			name:         "正常系: fixed_amount 割引が注文金額で打ち切られる",
			voucher:      voucher.MustNewVoucher("vch_8", "FLAT20K2", voucher.DiscountTypeFixedAmount, 20000, 0, 0, start, end, "", 0),
			order:        OrderContext{OrderValue: 15000},
			wantValid:    true,
			wantDiscount: 15000,
			wantFinal:    0,
		},
		{
			name:         "正常系: 店舗限定バウチャーを対象店舗で利用",
			voucher:      voucher.MustNewVoucher("vch_9", "SCOPED2", voucher.DiscountTypePercentage, 10, 0, 0, start, end, "rest_1", 0),
			order:        OrderContext{OrderValue: 100000, RestaurantID: "rest_1"},
			wantValid:    true,
			wantDiscount: 10000,
			wantFinal:    90000,
		},
		{
			name:         "正常系: 全店舗バウチャーは任意の店舗で有効",
			voucher:      save10,
			order:        OrderContext{OrderValue: 500000, RestaurantID: "rest_99"},
			wantValid:    true,
			wantDiscount: 50000,
			wantFinal:    450000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := validator.Validate(tt.voucher, tt.order, now)

			require.NotNil(t, got)
			assert.Equal(t, tt.wantValid, got.IsValid)
			assert.Equal(t, tt.wantDiscount, got.DiscountAmount)
			assert.Equal(t, tt.wantFinal, got.FinalAmount)

			if tt.wantValid {
				assert.NotNil(t, got.Voucher)
				assert.Empty(t, got.ErrorMessage)
				// final_amountが負になることはない
				assert.GreaterOrEqual(t, got.FinalAmount, int64(0))
			} else {
				assert.Nil(t, got.Voucher)
				assert.Equal(t, tt.wantErrorMessage, got.ErrorMessage)
				// 無効な場合は注文金額がそのまま返る
				assert.Equal(t, tt.order.OrderValue, got.FinalAmount)
				assert.Equal(t, int64(0), got.DiscountAmount)
			}
		})
	}
}

func TestVoucherValidator_Validate_RuleOrder(t *testing.T) {
	// 複数ルールに違反する場合、先頭のルールの理由が優先される
	validator := NewVoucherValidator()
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	v := voucher.MustNewVoucher("vch_1", "MULTI", voucher.DiscountTypePercentage, 10, 100000, 0,
		now.Add(-48*time.Hour), now.Add(-24*time.Hour), "rest_1", 1)
	v.SetUsedCount(1)
	v.Deactivate()

	got := validator.Validate(v, OrderContext{OrderValue: 1000, RestaurantID: "rest_2"}, now)
	assert.False(t, got.IsValid)
	assert.Equal(t, "Voucher is not active", got.ErrorMessage)
}

func TestVoucherValidator_Validate_Idempotent(t *testing.T) {
	// 同一入力・同一時刻なら結果は完全に一致する
	validator := NewVoucherValidator()
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	v := voucher.MustNewVoucher("vch_1", "SAVE10", voucher.DiscountTypePercentage, 10, 100000, 50000,
		now.Add(-time.Hour), now.Add(time.Hour), "", 0)
	order := OrderContext{OrderValue: 500000}

	first := validator.Validate(v, order, now)
	second := validator.Validate(v, order, now)
	assert.Equal(t, first, second)
}
