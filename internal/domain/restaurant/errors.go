package restaurant

import "errors"

var (
	// ErrRestaurantNotFound 店舗が見つからないエラー
	ErrRestaurantNotFound = errors.New("restaurant not found")
)
