package handler

import (
	"context"
	"database/sql"
	"time"

	"voucher-server/internal/domain/restaurant"
	"voucher-server/internal/domain/voucher"

	"github.com/stretchr/testify/mock"
)

// MockVoucherRepository モックバウチャーリポジトリ
type MockVoucherRepository struct {
	mock.Mock
}

func (m *MockVoucherRepository) Create(ctx context.Context, v *voucher.Voucher) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *MockVoucherRepository) Update(ctx context.Context, v *voucher.Voucher) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *MockVoucherRepository) FindByID(ctx context.Context, id string) (*voucher.Voucher, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*voucher.Voucher), args.Error(1)
}

func (m *MockVoucherRepository) FindByCode(ctx context.Context, code string) (*voucher.Voucher, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*voucher.Voucher), args.Error(1)
}

func (m *MockVoucherRepository) FindAll(ctx context.Context, filter voucher.ListFilter) ([]*voucher.Voucher, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*voucher.Voucher), args.Int(1), args.Error(2)
}

func (m *MockVoucherRepository) FindActiveByRestaurant(ctx context.Context, restaurantID string, now time.Time) ([]*voucher.Voucher, error) {
	args := m.Called(ctx, restaurantID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*voucher.Voucher), args.Error(1)
}

func (m *MockVoucherRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockVoucherRepository) IncrementUsage(ctx context.Context, tx *sql.Tx, voucherID string) (int, error) {
	args := m.Called(ctx, tx, voucherID)
	return args.Int(0), args.Error(1)
}

func (m *MockVoucherRepository) SaveUsage(ctx context.Context, tx *sql.Tx, usage *voucher.VoucherUsage) error {
	args := m.Called(ctx, tx, usage)
	return args.Error(0)
}

func (m *MockVoucherRepository) CountUsage(ctx context.Context, voucherID string) (int, error) {
	args := m.Called(ctx, voucherID)
	return args.Int(0), args.Error(1)
}

func (m *MockVoucherRepository) FindUsage(ctx context.Context, voucherID string, limit, offset int) ([]*voucher.VoucherUsage, error) {
	args := m.Called(ctx, voucherID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*voucher.VoucherUsage), args.Error(1)
}

// MockRestaurantRepository モック店舗リポジトリ
type MockRestaurantRepository struct {
	mock.Mock
}

func (m *MockRestaurantRepository) FindByID(ctx context.Context, id string) (*restaurant.Restaurant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*restaurant.Restaurant), args.Error(1)
}

func (m *MockRestaurantRepository) Exists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockTransactionManager モックトランザクションマネージャー
type MockTransactionManager struct {
	mock.Mock
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}
