package voucher

import (
	"errors"
	"time"
)

// Voucher バウチャーエンティティ
// 金額系フィールドはすべて整数の通貨最小単位（VND）で保持する
type Voucher struct {
	id            string
	code          string
	discountType  DiscountType
	discountValue int64
	minOrderValue int64  // 0 = 下限なし
	maxDiscount   int64  // 0 = 上限なし（percentage割引のみ適用）
	startDate     time.Time
	endDate       time.Time
	restaurantID  string // 空文字 = 全店舗で有効
	usageLimit    int    // 0 = 無制限
	usedCount     int
	isActive      bool
	createdAt     time.Time
	updatedAt     time.Time
}

// NewVoucher 新しいVoucherエンティティを作成
func NewVoucher(
	id string,
	code string,
	discountType DiscountType,
	discountValue int64,
	minOrderValue int64,
	maxDiscount int64,
	startDate time.Time,
	endDate time.Time,
	restaurantID string,
	usageLimit int,
) (*Voucher, error) {
	if code == "" {
		return nil, errors.New("invalid code")
	}
	if !discountType.Valid() {
		return nil, errors.New("invalid discount type")
	}
	if discountValue <= 0 {
		return nil, errors.New("invalid discount value")
	}
	if discountType == DiscountTypePercentage && discountValue > 100 {
		return nil, errors.New("percentage discount value must not exceed 100")
	}
	if minOrderValue < 0 {
		return nil, errors.New("invalid min order value")
	}
	if maxDiscount < 0 {
		return nil, errors.New("invalid max discount")
	}
	if endDate.Before(startDate) {
		return nil, errors.New("end date must not be before start date")
	}
	if usageLimit < 0 {
		return nil, errors.New("invalid usage limit")
	}

	now := time.Now()
	return &Voucher{
		id:            id,
		code:          code,
		discountType:  discountType,
		discountValue: discountValue,
		minOrderValue: minOrderValue,
		maxDiscount:   maxDiscount,
		startDate:     startDate,
		endDate:       endDate,
		restaurantID:  restaurantID,
		usageLimit:    usageLimit,
		usedCount:     0,
		isActive:      true,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ID 識別子を返す
func (v *Voucher) ID() string {
	return v.id
}

// Code コードを返す
func (v *Voucher) Code() string {
	return v.code
}

// DiscountType 割引タイプを返す
func (v *Voucher) DiscountType() DiscountType {
	return v.discountType
}

// DiscountValue 割引値を返す
func (v *Voucher) DiscountValue() int64 {
	return v.discountValue
}

// MinOrderValue 最低注文金額を返す
func (v *Voucher) MinOrderValue() int64 {
	return v.minOrderValue
}

// MaxDiscount 割引上限金額を返す
func (v *Voucher) MaxDiscount() int64 {
	return v.maxDiscount
}

// StartDate 有効開始日時を返す
func (v *Voucher) StartDate() time.Time {
	return v.startDate
}

// EndDate 有効期限を返す
func (v *Voucher) EndDate() time.Time {
	return v.endDate
}

// RestaurantID 対象店舗IDを返す（空文字 = 全店舗）
func (v *Voucher) RestaurantID() string {
	return v.restaurantID
}

// UsageLimit 最大使用回数を返す
func (v *Voucher) UsageLimit() int {
	return v.usageLimit
}

// UsedCount 現在の使用回数を返す
func (v *Voucher) UsedCount() int {
	return v.usedCount
}

// IsActive 有効フラグを返す
func (v *Voucher) IsActive() bool {
	return v.isActive
}

// CreatedAt 作成日時を返す
func (v *Voucher) CreatedAt() time.Time {
	return v.createdAt
}

// UpdatedAt 更新日時を返す
func (v *Voucher) UpdatedAt() time.Time {
	return v.updatedAt
}

// HasUsageLimit 使用回数制限があるかどうかを返す
func (v *Voucher) HasUsageLimit() bool {
	return v.usageLimit > 0
}

// UsageLimitReached 使用回数制限に達しているかどうかを返す
func (v *Voucher) UsageLimitReached() bool {
	return v.HasUsageLimit() && v.usedCount >= v.usageLimit
}

// IsWithinValidityPeriod 指定時刻が有効期間内（両端含む）かどうかを返す
func (v *Voucher) IsWithinValidityPeriod(now time.Time) bool {
	return !now.Before(v.startDate) && !now.After(v.endDate)
}

// AppliesToRestaurant 指定店舗で利用可能かどうかを返す
func (v *Voucher) AppliesToRestaurant(restaurantID string) bool {
	return v.restaurantID == "" || v.restaurantID == restaurantID
}

// UsagePercentage 使用率（usedCount/usageLimit*100）を返す
// 使用回数制限がない場合はokがfalse
func (v *Voucher) UsagePercentage() (float64, bool) {
	if !v.HasUsageLimit() {
		return 0, false
	}
	return float64(v.usedCount) / float64(v.usageLimit) * 100, true
}

// Deactivate バウチャーを無効化（ソフトデリート）
func (v *Voucher) Deactivate() {
	v.isActive = false
	v.updatedAt = time.Now()
}

// Activate バウチャーを有効化
func (v *Voucher) Activate() {
	v.isActive = true
	v.updatedAt = time.Now()
}

// ChangeCode コードを変更（一意性チェックは呼び出し側の責務）
func (v *Voucher) ChangeCode(code string) error {
	if code == "" {
		return errors.New("invalid code")
	}
	v.code = code
	v.updatedAt = time.Now()
	return nil
}

// ChangeDiscount 割引条件を変更
func (v *Voucher) ChangeDiscount(discountType DiscountType, discountValue, minOrderValue, maxDiscount int64) error {
	if !discountType.Valid() {
		return errors.New("invalid discount type")
	}
	if discountValue <= 0 {
		return errors.New("invalid discount value")
	}
	if discountType == DiscountTypePercentage && discountValue > 100 {
		return errors.New("percentage discount value must not exceed 100")
	}
	if minOrderValue < 0 || maxDiscount < 0 {
		return errors.New("invalid discount bounds")
	}
	v.discountType = discountType
	v.discountValue = discountValue
	v.minOrderValue = minOrderValue
	v.maxDiscount = maxDiscount
	v.updatedAt = time.Now()
	return nil
}

// ChangeValidityPeriod 有効期間を変更
func (v *Voucher) ChangeValidityPeriod(startDate, endDate time.Time) error {
	if endDate.Before(startDate) {
		return errors.New("end date must not be before start date")
	}
	v.startDate = startDate
	v.endDate = endDate
	v.updatedAt = time.Now()
	return nil
}

// ChangeRestaurantScope 対象店舗を変更（存在チェックは呼び出し側の責務）
func (v *Voucher) ChangeRestaurantScope(restaurantID string) {
	v.restaurantID = restaurantID
	v.updatedAt = time.Now()
}

// ChangeUsageLimit 最大使用回数を変更
func (v *Voucher) ChangeUsageLimit(usageLimit int) error {
	if usageLimit < 0 {
		return errors.New("invalid usage limit")
	}
	v.usageLimit = usageLimit
	v.updatedAt = time.Now()
	return nil
}

// SetUsedCount 現在の使用回数を設定（リポジトリから読み込んだ際に使用）
func (v *Voucher) SetUsedCount(count int) {
	v.usedCount = count
}

// SetActive 有効フラグを設定（リポジトリから読み込んだ際に使用）
func (v *Voucher) SetActive(active bool) {
	v.isActive = active
}

// SetTimestamps 作成・更新日時を設定（リポジトリから読み込んだ際に使用）
func (v *Voucher) SetTimestamps(createdAt, updatedAt time.Time) {
	v.createdAt = createdAt
	v.updatedAt = updatedAt
}

// MustNewVoucher テスト用ヘルパー: NewVoucherを呼び出し、エラーが発生した場合はpanicする
func MustNewVoucher(
	id string,
	code string,
	discountType DiscountType,
	discountValue int64,
	minOrderValue int64,
	maxDiscount int64,
	startDate time.Time,
	endDate time.Time,
	restaurantID string,
	usageLimit int,
) *Voucher {
	v, err := NewVoucher(id, code, discountType, discountValue, minOrderValue, maxDiscount, startDate, endDate, restaurantID, usageLimit)
	if err != nil {
		panic(err)
	}
	return v
}
