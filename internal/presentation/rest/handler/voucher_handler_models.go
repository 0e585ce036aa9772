package handler

import "time"

// APIResponse API共通レスポンスエンベロープ
// @Description API共通レスポンスエンベロープ
type APIResponse struct {
	Success    bool        `json:"success" example:"true"`
	Data       interface{} `json:"data,omitempty"`
	Message    string      `json:"message,omitempty" example:"ok"`
	Errors     []string    `json:"errors,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination ページネーション情報
// @Description ページネーション情報
type Pagination struct {
	Page       int `json:"page" example:"1"`
	Limit      int `json:"limit" example:"20"`
	Total      int `json:"total" example:"42"`
	TotalPages int `json:"total_pages" example:"3"`
}

// VoucherData バウチャーのワイヤ表現
// 金額系フィールドはすべて整数の通貨最小単位（VND）
// @Description バウチャー
type VoucherData struct {
	ID            string    `json:"id" example:"vch_1700000000000000000"`
	Code          string    `json:"code" example:"SAVE10"`
	DiscountType  string    `json:"discount_type" example:"percentage" enums:"percentage,fixed_amount"`
	DiscountValue int64     `json:"discount_value" example:"10"`
	MinOrderValue int64     `json:"min_order_value" example:"100000"`
	MaxDiscount   int64     `json:"max_discount" example:"50000"`
	StartDate     time.Time `json:"start_date" example:"2025-01-01T00:00:00Z"`
	EndDate       time.Time `json:"end_date" example:"2025-12-31T23:59:59Z"`
	RestaurantID  string    `json:"restaurant_id,omitempty" example:"rest_1"`
	UsageLimit    int       `json:"usage_limit" example:"100"`
	UsedCount     int       `json:"used_count" example:"12"`
	IsActive      bool      `json:"is_active" example:"true"`
	CreatedAt     time.Time `json:"created_at" example:"2025-01-01T00:00:00Z"`
	UpdatedAt     time.Time `json:"updated_at" example:"2025-01-01T00:00:00Z"`
}

// CreateVoucherRequest バウチャー作成リクエスト
// @Description バウチャー作成リクエスト
type CreateVoucherRequest struct {
	Code          string    `json:"code" example:"SAVE10"`
	DiscountType  string    `json:"discount_type" example:"percentage" enums:"percentage,fixed_amount"`
	DiscountValue int64     `json:"discount_value" example:"10"`
	MinOrderValue int64     `json:"min_order_value" example:"100000"`
	MaxDiscount   int64     `json:"max_discount" example:"50000"`
	StartDate     time.Time `json:"start_date" example:"2025-01-01T00:00:00Z"`
	EndDate       time.Time `json:"end_date" example:"2025-12-31T23:59:59Z"`
	RestaurantID  string    `json:"restaurant_id,omitempty" example:"rest_1"`
	UsageLimit    int       `json:"usage_limit" example:"100"`
}

// UpdateVoucherRequest バウチャー更新リクエスト
// 省略されたフィールドは変更されない
// @Description バウチャー更新リクエスト
type UpdateVoucherRequest struct {
	Code          *string    `json:"code,omitempty" example:"SAVE15"`
	DiscountType  *string    `json:"discount_type,omitempty" example:"percentage" enums:"percentage,fixed_amount"`
	DiscountValue *int64     `json:"discount_value,omitempty" example:"15"`
	MinOrderValue *int64     `json:"min_order_value,omitempty" example:"150000"`
	MaxDiscount   *int64     `json:"max_discount,omitempty" example:"75000"`
	StartDate     *time.Time `json:"start_date,omitempty" example:"2025-01-01T00:00:00Z"`
	EndDate       *time.Time `json:"end_date,omitempty" example:"2025-12-31T23:59:59Z"`
	RestaurantID  *string    `json:"restaurant_id,omitempty" example:"rest_1"`
	UsageLimit    *int       `json:"usage_limit,omitempty" example:"200"`
	IsActive      *bool      `json:"is_active,omitempty" example:"true"`
}

// ValidateVoucherRequest バウチャー検証リクエスト
// @Description バウチャー検証リクエスト
type ValidateVoucherRequest struct {
	Code         string `json:"code" example:"SAVE10"`
	OrderValue   int64  `json:"order_value" example:"500000"`
	RestaurantID string `json:"restaurant_id,omitempty" example:"rest_1"`
}

// ValidateVoucherData バウチャー検証結果
// ビジネスルール違反はis_valid=falseの正常な結果として返る
// @Description バウチャー検証結果
type ValidateVoucherData struct {
	IsValid        bool         `json:"is_valid" example:"true"`
	Voucher        *VoucherData `json:"voucher,omitempty"`
	DiscountAmount int64        `json:"discount_amount" example:"50000"`
	FinalAmount    int64        `json:"final_amount" example:"450000"`
	ErrorMessage   string       `json:"error_message,omitempty" example:"Voucher has expired"`
}

// UseVoucherRequest バウチャー引き換えリクエスト
// @Description バウチャー引き換えリクエスト
type UseVoucherRequest struct {
	Code    string `json:"code" example:"SAVE10"`
	UserID  string `json:"user_id" example:"user_1"`
	OrderID string `json:"order_id,omitempty" example:"order_1"`
}

// UseVoucherData バウチャー引き換え結果
// @Description バウチャー引き換え結果
type UseVoucherData struct {
	UsageID   string    `json:"usage_id" example:"usg_1700000000000000000"`
	VoucherID string    `json:"voucher_id" example:"vch_1700000000000000000"`
	Code      string    `json:"code" example:"SAVE10"`
	UsedCount int       `json:"used_count" example:"13"`
	UsedAt    time.Time `json:"used_at" example:"2025-06-01T12:00:00Z"`
}

// ArchiveVoucherData バウチャー無効化結果
// @Description バウチャー無効化結果
type ArchiveVoucherData struct {
	ID         string    `json:"id" example:"vch_1700000000000000000"`
	ArchivedAt time.Time `json:"archived_at" example:"2025-06-01T12:00:00Z"`
}

// PurgeVoucherData バウチャー物理削除結果
// @Description バウチャー物理削除結果
type PurgeVoucherData struct {
	ID        string    `json:"id" example:"vch_1700000000000000000"`
	DeletedAt time.Time `json:"deleted_at" example:"2025-06-01T12:00:00Z"`
}

// UsageItem 使用履歴アイテム
// @Description 使用履歴アイテム
type UsageItem struct {
	UsageID   string    `json:"usage_id" example:"usg_1700000000000000000"`
	VoucherID string    `json:"voucher_id" example:"vch_1700000000000000000"`
	UserID    string    `json:"user_id" example:"user_1"`
	OrderID   string    `json:"order_id,omitempty" example:"order_1"`
	UsedAt    time.Time `json:"used_at" example:"2025-06-01T12:00:00Z"`
}

// UsageStatsData バウチャー使用統計
// @Description バウチャー使用統計
type UsageStatsData struct {
	VoucherID       string      `json:"voucher_id" example:"vch_1700000000000000000"`
	Code            string      `json:"code" example:"SAVE10"`
	TotalUses       int         `json:"total_uses" example:"12"`
	UsageLimit      int         `json:"usage_limit" example:"100"`
	UsagePercentage *float64    `json:"usage_percentage,omitempty" example:"12.0"`
	RecentUsage     []UsageItem `json:"recent_usage"`
}

// ActiveVouchersData 店舗で利用可能なバウチャー一覧
// @Description 店舗で利用可能なバウチャー一覧
type ActiveVouchersData struct {
	RestaurantID string        `json:"restaurant_id" example:"rest_1"`
	Vouchers     []VoucherData `json:"vouchers"`
}
