package restaurant

import (
	"context"
)

// RestaurantRepository 店舗リポジトリインターフェース
type RestaurantRepository interface {
	// FindByID IDで店舗を取得
	FindByID(ctx context.Context, id string) (*Restaurant, error)

	// Exists 店舗が存在するかチェック
	Exists(ctx context.Context, id string) (bool, error)
}
