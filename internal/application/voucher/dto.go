package voucher

import (
	"time"

	"voucher-server/internal/domain/voucher"
)

// VoucherDTO バウチャーのアプリケーション層表現
type VoucherDTO struct {
	ID            string
	Code          string
	DiscountType  string
	DiscountValue int64
	MinOrderValue int64
	MaxDiscount   int64
	StartDate     time.Time
	EndDate       time.Time
	RestaurantID  string
	UsageLimit    int
	UsedCount     int
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewVoucherDTO ドメインエンティティからDTOを作成
func NewVoucherDTO(v *voucher.Voucher) *VoucherDTO {
	return &VoucherDTO{
		ID:            v.ID(),
		Code:          v.Code(),
		DiscountType:  v.DiscountType().String(),
		DiscountValue: v.DiscountValue(),
		MinOrderValue: v.MinOrderValue(),
		MaxDiscount:   v.MaxDiscount(),
		StartDate:     v.StartDate(),
		EndDate:       v.EndDate(),
		RestaurantID:  v.RestaurantID(),
		UsageLimit:    v.UsageLimit(),
		UsedCount:     v.UsedCount(),
		IsActive:      v.IsActive(),
		CreatedAt:     v.CreatedAt(),
		UpdatedAt:     v.UpdatedAt(),
	}
}

// CreateVoucherRequest バウチャー作成リクエスト
type CreateVoucherRequest struct {
	Code          string
	DiscountType  string
	DiscountValue int64
	MinOrderValue int64
	MaxDiscount   int64
	StartDate     time.Time
	EndDate       time.Time
	RestaurantID  string
	UsageLimit    int
}

// UpdateVoucherRequest バウチャー更新リクエスト
// nilのフィールドは変更しない
type UpdateVoucherRequest struct {
	ID            string
	Code          *string
	DiscountType  *string
	DiscountValue *int64
	MinOrderValue *int64
	MaxDiscount   *int64
	StartDate     *time.Time
	EndDate       *time.Time
	RestaurantID  *string
	UsageLimit    *int
	IsActive      *bool
}

// ListVouchersRequest バウチャー一覧取得リクエスト
type ListVouchersRequest struct {
	RestaurantID string
	IsActive     *bool
	DiscountType string
	Code         string // 部分一致
	Page         int
	Limit        int
	SortBy       string
	SortOrder    string
}

// ListVouchersResponse バウチャー一覧取得レスポンス
type ListVouchersResponse struct {
	Vouchers []*VoucherDTO
	Total    int
	Page     int
	Limit    int
}

// ValidateVoucherRequest バウチャー検証リクエスト
type ValidateVoucherRequest struct {
	Code         string
	OrderValue   int64
	RestaurantID string
}

// ValidateVoucherResponse バウチャー検証レスポンス
// ビジネスルール違反は正常な結果として返る（IsValid=false）
type ValidateVoucherResponse struct {
	IsValid        bool
	Voucher        *VoucherDTO // 有効な場合のみ設定
	DiscountAmount int64
	FinalAmount    int64
	ErrorMessage   string
}

// UseVoucherRequest バウチャー引き換えリクエスト
type UseVoucherRequest struct {
	Code    string
	UserID  string
	OrderID string // 任意
}

// UseVoucherResponse バウチャー引き換えレスポンス
type UseVoucherResponse struct {
	UsageID   string
	VoucherID string
	Code      string
	UsedCount int
	UsedAt    time.Time
}

// ArchiveVoucherResponse バウチャー無効化レスポンス
type ArchiveVoucherResponse struct {
	ID         string
	ArchivedAt time.Time
}

// PurgeVoucherResponse バウチャー物理削除レスポンス
type PurgeVoucherResponse struct {
	ID        string
	DeletedAt time.Time
}

// VoucherUsageDTO 使用履歴のアプリケーション層表現
type VoucherUsageDTO struct {
	UsageID   string
	VoucherID string
	UserID    string
	OrderID   string
	UsedAt    time.Time
}

// NewVoucherUsageDTO ドメインエンティティからDTOを作成
func NewVoucherUsageDTO(u *voucher.VoucherUsage) *VoucherUsageDTO {
	return &VoucherUsageDTO{
		UsageID:   u.UsageID(),
		VoucherID: u.VoucherID(),
		UserID:    u.UserID(),
		OrderID:   u.OrderID(),
		UsedAt:    u.UsedAt(),
	}
}

// UsageStatsRequest バウチャー使用統計取得リクエスト
type UsageStatsRequest struct {
	VoucherID string
	Limit     int // 直近の使用履歴の取得件数
	Offset    int
}

// UsageStatsResponse バウチャー使用統計レスポンス
type UsageStatsResponse struct {
	VoucherID       string
	Code            string
	TotalUses       int
	UsageLimit      int      // 0 = 無制限
	UsagePercentage *float64 // 使用回数制限がない場合はnil
	RecentUsage     []*VoucherUsageDTO
}

// ActiveVouchersResponse 店舗で利用可能なバウチャー一覧レスポンス
type ActiveVouchersResponse struct {
	RestaurantID string
	Vouchers     []*VoucherDTO
}
