package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"voucher-server/internal/domain/voucher"
)

// pgUniqueViolationCode PostgreSQLの一意性制約違反エラーコード
const pgUniqueViolationCode = "23505"

// voucherColumns バウチャー取得クエリの共通カラムリスト
const voucherColumns = `
	voucher_id, code, discount_type, discount_value,
	min_order_value, max_discount, start_date, end_date,
	restaurant_id, usage_limit, used_count, is_active,
	created_at, updated_at
`

// sortColumns ソート指定可能なカラムのホワイトリスト
var sortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"code":       "code",
	"start_date": "start_date",
	"end_date":   "end_date",
	"used_count": "used_count",
}

// VoucherRepository PostgreSQL実装のVoucherRepository
type VoucherRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewVoucherRepository 新しいVoucherRepositoryを作成
func NewVoucherRepository(db *DB) *VoucherRepository {
	return &VoucherRepository{
		db:     db,
		tracer: otel.Tracer("voucher-repository"),
	}
}

// Create バウチャーを新規作成
func (r *VoucherRepository) Create(ctx context.Context, v *voucher.Voucher) error {
	ctx, span := r.tracer.Start(ctx, "VoucherRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.voucher_id", v.ID()),
		attribute.String("db.code", v.Code()),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "vouchers"),
	)

	query := `
		INSERT INTO vouchers (
			voucher_id, code, discount_type, discount_value,
			min_order_value, max_discount, start_date, end_date,
			restaurant_id, usage_limit, used_count, is_active,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(ctx, query,
		v.ID(),
		v.Code(),
		v.DiscountType().String(),
		v.DiscountValue(),
		v.MinOrderValue(),
		v.MaxDiscount(),
		v.StartDate(),
		v.EndDate(),
		nullableString(v.RestaurantID()),
		v.UsageLimit(),
		v.UsedCount(),
		v.IsActive(),
		v.CreatedAt(),
		v.UpdatedAt(),
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			span.SetStatus(otelcodes.Ok, "voucher code already exists")
			return voucher.ErrVoucherCodeExists
		}
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to create voucher: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "voucher created")
	return nil
}

// Update バウチャーの可変フィールドを保存
func (r *VoucherRepository) Update(ctx context.Context, v *voucher.Voucher) error {
	ctx, span := r.tracer.Start(ctx, "VoucherRepository.Update")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.voucher_id", v.ID()),
		attribute.String("db.code", v.Code()),
		attribute.Bool("db.is_active", v.IsActive()),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.table", "vouchers"),
	)

	query := `
		UPDATE vouchers
		SET
			code = $1,
			discount_type = $2,
			discount_value = $3,
			min_order_value = $4,
			max_discount = $5,
			start_date = $6,
			end_date = $7,
			restaurant_id = $8,
			usage_limit = $9,
			is_active = $10,
			updated_at = $11
		WHERE voucher_id = $12
	`

	result, err := r.db.ExecContext(ctx, query,
		v.Code(),
		v.DiscountType().String(),
		v.DiscountValue(),
		v.MinOrderValue(),
		v.MaxDiscount(),
		v.StartDate(),
		v.EndDate(),
		nullableString(v.RestaurantID()),
		v.UsageLimit(),
		v.IsActive(),
		v.UpdatedAt(),
		v.ID(),
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			span.SetStatus(otelcodes.Ok, "voucher code already exists")
			return voucher.ErrVoucherCodeExists
		}
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to update voucher: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		span.SetStatus(otelcodes.Ok, "voucher not found")
		return voucher.ErrVoucherNotFound
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", rowsAffected))
	span.SetStatus(otelcodes.Ok, "voucher updated")
	return nil
}

// FindByID IDでバウチャーを取得
func (r *VoucherRepository) FindByID(ctx context.Context, id string) (*voucher.Voucher, error) {
	ctx, span := r.tracer.Start(ctx, "VoucherRepository.FindByID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.voucher_id", id),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "vouchers"),
	)

	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE voucher_id = $1`

	v, err := scanVoucher(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		span.SetStatus(otelcodes.Ok, "voucher not found")
		return nil, voucher.ErrVoucherNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find voucher: %w", err)
	}

	span.SetAttributes(attribute.String("db.code", v.Code()))
	span.SetStatus(otelcodes.Ok, "voucher found")
	return v, nil
}

// FindByCode コードでバウチャーを取得
func (r *VoucherRepository) FindByCode(ctx context.Context, code string) (*voucher.Voucher, error) {
	ctx, span := r.tracer.Start(ctx, "VoucherRepository.FindByCode")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.code", code),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "vouchers"),
	)

	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE code = $1`

	v, err := scanVoucher(r.db.QueryRowContext(ctx, query, code))
	if err == sql.ErrNoRows {
		span.SetStatus(otelcodes.Ok, "voucher not found")
		return nil, voucher.ErrVoucherNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find voucher: %w", err)
	}

	span.SetAttributes(attribute.String("db.voucher_id", v.ID()))
	span.SetStatus(otelcodes.Ok, "voucher found")
	return v, nil
}

// FindAll 絞り込み条件付きで一覧と総件数を取得
func (r *VoucherRepository) FindAll(ctx context.Context, filter voucher.ListFilter) ([]*voucher.Voucher, int, error) {
	ctx, span := r.tracer.Start(ctx, "VoucherRepository.FindAll")
	defer span.End()

	span.SetAttributes(
		attribute.Int("db.limit", filter.Limit),
		attribute.Int("db.offset", filter.Offset),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "vouchers"),
	)

	var conditions []string
	var args []interface{}

	if filter.RestaurantID != "" {
		args = append(args, filter.RestaurantID)
		conditions = append(conditions, fmt.Sprintf("restaurant_id = $%d", len(args)))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if filter.DiscountType != "" {
		args = append(args, filter.DiscountType.String())
		conditions = append(conditions, fmt.Sprintf("discount_type = $%d", len(args)))
	}
	if filter.Code != "" {
		args = append(args, "%"+filter.Code+"%")
		conditions = append(conditions, fmt.Sprintf("code ILIKE $%d", len(args)))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := `SELECT COUNT(*) FROM vouchers` + whereClause

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, 0, fmt.Errorf("failed to count vouchers: %w", err)
	}

	sortColumn, ok := sortColumns[filter.SortBy]
	if !ok {
		sortColumn = "created_at"
	}
	sortOrder := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		sortOrder = "ASC"
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(
		`SELECT %s FROM vouchers%s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		voucherColumns, whereClause, sortColumn, sortOrder, len(args)-1, len(args),
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, 0, fmt.Errorf("failed to query vouchers: %w", err)
	}
	defer rows.Close()

	var vouchers []*voucher.Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan voucher: %w", err)
		}
		vouchers = append(vouchers, v)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, 0, fmt.Errorf("failed to iterate vouchers: %w", err)
	}

	span.SetAttributes(
		attribute.Int("db.result_count", len(vouchers)),
		attribute.Int("db.total_count", total),
	)
	span.SetStatus(otelcodes.Ok, fmt.Sprintf("found %d vouchers", len(vouchers)))
	return vouchers, total, nil
}

// FindActiveByRestaurant 指定店舗で現在利用可能なバウチャーを取得
func (r *VoucherRepository) FindActiveByRestaurant(ctx context.Context, restaurantID string, now time.Time) ([]*voucher.Voucher, error) {
	ctx, span := r.tracer.Start(ctx, "VoucherRepository.FindActiveByRestaurant")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.restaurant_id", restaurantID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "vouchers"),
	)

	query := `SELECT ` + voucherColumns + `
		FROM vouchers
		WHERE is_active = TRUE
			AND start_date <= $2
			AND end_date >= $2
			AND (restaurant_id IS NULL OR restaurant_id = $1)
		ORDER BY end_date ASC
	`

	rows, err := r.db.QueryContext(ctx, query, restaurantID, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to query active vouchers: %w", err)
	}
	defer rows.Close()

	var vouchers []*voucher.Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan voucher: %w", err)
		}
		vouchers = append(vouchers, v)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to iterate vouchers: %w", err)
	}

	span.SetAttributes(attribute.Int("db.result_count", len(vouchers)))
	span.SetStatus(otelcodes.Ok, fmt.Sprintf("found %d active vouchers", len(vouchers)))
	return vouchers, nil
}

// Delete バウチャーを物理削除
func (r *VoucherRepository) Delete(ctx context.Context, id string) error {
	ctx, span := r.tracer.Start(ctx, "VoucherRepository.Delete")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.voucher_id", id),
		attribute.String("db.operation", "DELETE"),
		attribute.String("db.table", "vouchers"),
	)

	query := `DELETE FROM vouchers WHERE voucher_id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to delete voucher: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		span.SetStatus(otelcodes.Ok, "voucher not found")
		return voucher.ErrVoucherNotFound
	}

	span.SetStatus(otelcodes.Ok, "voucher deleted")
	return nil
}

// IncrementUsage トランザクション内で使用回数を条件付きインクリメントし、更新後の値を返す
// usage_limitに達した行は更新されず、ErrUsageLimitReachedを返す
func (r *VoucherRepository) IncrementUsage(ctx context.Context, tx *sql.Tx, voucherID string) (int, error) {
	ctx, span := r.tracer.Start(ctx, "VoucherRepository.IncrementUsage")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.voucher_id", voucherID),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.table", "vouchers"),
	)

	query := `
		UPDATE vouchers
		SET used_count = used_count + 1, updated_at = CURRENT_TIMESTAMP
		WHERE voucher_id = $1
			AND (usage_limit = 0 OR used_count < usage_limit)
		RETURNING used_count
	`

	var usedCount int
	err := tx.QueryRowContext(ctx, query, voucherID).Scan(&usedCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			span.SetStatus(otelcodes.Ok, "usage limit reached")
			return 0, voucher.ErrUsageLimitReached
		}
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return 0, fmt.Errorf("failed to increment usage: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "usage incremented")
	return usedCount, nil
}

// SaveUsage トランザクション内で使用履歴を保存
func (r *VoucherRepository) SaveUsage(ctx context.Context, tx *sql.Tx, usage *voucher.VoucherUsage) error {
	ctx, span := r.tracer.Start(ctx, "VoucherRepository.SaveUsage")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.usage_id", usage.UsageID()),
		attribute.String("db.voucher_id", usage.VoucherID()),
		attribute.String("db.user_id", usage.UserID()),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "voucher_usages"),
	)

	query := `
		INSERT INTO voucher_usages (
			usage_id, voucher_id, user_id, order_id, used_at
		) VALUES ($1, $2, $3, $4, $5)
	`

	_, err := tx.ExecContext(ctx, query,
		usage.UsageID(),
		usage.VoucherID(),
		usage.UserID(),
		nullableString(usage.OrderID()),
		usage.UsedAt(),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to save usage: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "usage saved")
	return nil
}

// CountUsage バウチャーの使用履歴件数を取得
func (r *VoucherRepository) CountUsage(ctx context.Context, voucherID string) (int, error) {
	ctx, span := r.tracer.Start(ctx, "VoucherRepository.CountUsage")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.voucher_id", voucherID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "voucher_usages"),
	)

	query := `SELECT COUNT(*) FROM voucher_usages WHERE voucher_id = $1`

	var count int
	if err := r.db.QueryRowContext(ctx, query, voucherID).Scan(&count); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return 0, fmt.Errorf("failed to count usage: %w", err)
	}

	span.SetAttributes(attribute.Int("db.count", count))
	span.SetStatus(otelcodes.Ok, fmt.Sprintf("found %d usages", count))
	return count, nil
}

// FindUsage バウチャーの使用履歴を新しい順に取得
func (r *VoucherRepository) FindUsage(ctx context.Context, voucherID string, limit, offset int) ([]*voucher.VoucherUsage, error) {
	ctx, span := r.tracer.Start(ctx, "VoucherRepository.FindUsage")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.voucher_id", voucherID),
		attribute.Int("db.limit", limit),
		attribute.Int("db.offset", offset),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "voucher_usages"),
	)

	query := `
		SELECT usage_id, voucher_id, user_id, order_id, used_at
		FROM voucher_usages
		WHERE voucher_id = $1
		ORDER BY used_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, voucherID, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to query usages: %w", err)
	}
	defer rows.Close()

	var usages []*voucher.VoucherUsage
	for rows.Next() {
		var usageID, dbVoucherID, userID string
		var orderID sql.NullString
		var usedAt time.Time

		if err := rows.Scan(&usageID, &dbVoucherID, &userID, &orderID, &usedAt); err != nil {
			return nil, fmt.Errorf("failed to scan usage: %w", err)
		}

		u := voucher.NewVoucherUsage(usageID, dbVoucherID, userID, orderID.String)
		u.SetUsedAt(usedAt)
		usages = append(usages, u)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to iterate usages: %w", err)
	}

	span.SetAttributes(attribute.Int("db.result_count", len(usages)))
	span.SetStatus(otelcodes.Ok, fmt.Sprintf("found %d usages", len(usages)))
	return usages, nil
}

// rowScanner sql.Rowとsql.Rowsの共通スキャンインターフェース
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanVoucher 1行分のバウチャーをエンティティに復元する
func scanVoucher(row rowScanner) (*voucher.Voucher, error) {
	var id, code, dbDiscountType string
	var discountValue, minOrderValue, maxDiscount int64
	var startDate, endDate time.Time
	var restaurantID sql.NullString
	var usageLimit, usedCount int
	var isActive bool
	var createdAt, updatedAt time.Time

	err := row.Scan(
		&id,
		&code,
		&dbDiscountType,
		&discountValue,
		&minOrderValue,
		&maxDiscount,
		&startDate,
		&endDate,
		&restaurantID,
		&usageLimit,
		&usedCount,
		&isActive,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	dt, err := voucher.NewDiscountType(dbDiscountType)
	if err != nil {
		return nil, fmt.Errorf("invalid discount type: %w", err)
	}

	v, err := voucher.NewVoucher(
		id,
		code,
		dt,
		discountValue,
		minOrderValue,
		maxDiscount,
		startDate,
		endDate,
		restaurantID.String,
		usageLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct voucher entity: %w", err)
	}

	// DBに保存された状態を復元
	v.SetUsedCount(usedCount)
	v.SetActive(isActive)
	v.SetTimestamps(createdAt, updatedAt)

	return v, nil
}

// nullableString 空文字をNULLとして保存するためのヘルパー
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
