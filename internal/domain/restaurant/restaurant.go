package restaurant

import (
	"time"
)

// Restaurant 店舗エンティティ
// バウチャーの店舗スコープ検証に必要な最小限の属性のみを持つ
type Restaurant struct {
	id        string
	name      string
	createdAt time.Time
}

// NewRestaurant 新しいRestaurantエンティティを作成
func NewRestaurant(id, name string, createdAt time.Time) *Restaurant {
	return &Restaurant{
		id:        id,
		name:      name,
		createdAt: createdAt,
	}
}

// ID 店舗IDを返す
func (r *Restaurant) ID() string {
	return r.id
}

// Name 店舗名を返す
func (r *Restaurant) Name() string {
	return r.name
}

// CreatedAt 作成日時を返す
func (r *Restaurant) CreatedAt() time.Time {
	return r.createdAt
}
