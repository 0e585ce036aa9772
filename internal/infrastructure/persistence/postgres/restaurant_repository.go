package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"voucher-server/internal/domain/restaurant"
)

// RestaurantRepository PostgreSQL実装のRestaurantRepository
type RestaurantRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewRestaurantRepository 新しいRestaurantRepositoryを作成
func NewRestaurantRepository(db *DB) *RestaurantRepository {
	return &RestaurantRepository{
		db:     db,
		tracer: otel.Tracer("restaurant-repository"),
	}
}

// FindByID IDで店舗を取得
func (r *RestaurantRepository) FindByID(ctx context.Context, id string) (*restaurant.Restaurant, error) {
	ctx, span := r.tracer.Start(ctx, "RestaurantRepository.FindByID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.restaurant_id", id),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "restaurants"),
	)

	query := `SELECT restaurant_id, name, created_at FROM restaurants WHERE restaurant_id = $1`

	var dbID, name string
	var createdAt time.Time

	err := r.db.QueryRowContext(ctx, query, id).Scan(&dbID, &name, &createdAt)
	if err == sql.ErrNoRows {
		span.SetStatus(otelcodes.Ok, "restaurant not found")
		return nil, restaurant.ErrRestaurantNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find restaurant: %w", err)
	}

	span.SetAttributes(attribute.String("db.name", name))
	span.SetStatus(otelcodes.Ok, "restaurant found")
	return restaurant.NewRestaurant(dbID, name, createdAt), nil
}

// Exists 店舗が存在するかチェック
func (r *RestaurantRepository) Exists(ctx context.Context, id string) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "RestaurantRepository.Exists")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.restaurant_id", id),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "restaurants"),
	)

	query := `SELECT COUNT(*) FROM restaurants WHERE restaurant_id = $1`

	var count int
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&count); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return false, fmt.Errorf("failed to check restaurant existence: %w", err)
	}

	span.SetAttributes(attribute.Int("db.count", count))
	span.SetStatus(otelcodes.Ok, fmt.Sprintf("restaurant exists: %v", count > 0))
	return count > 0, nil
}
