package voucher

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
	"voucher-server/internal/domain/service"
	"voucher-server/internal/domain/transaction"
	"voucher-server/internal/domain/voucher"
	otelinfra "voucher-server/internal/infrastructure/observability/otel"
)

// VoucherApplicationService バウチャーアプリケーションサービス
type VoucherApplicationService struct {
	voucherRepo    voucher.VoucherRepository
	restaurantRepo restaurant.RestaurantRepository
	txManager      transaction.TransactionManager
	validator      *service.VoucherValidator
	logger         *otelinfra.Logger
	metrics        *otelinfra.Metrics
	tracer         trace.Tracer
}

// NewVoucherApplicationService 新しいVoucherApplicationServiceを作成
func NewVoucherApplicationService(
	voucherRepo voucher.VoucherRepository,
	restaurantRepo restaurant.RestaurantRepository,
	txManager transaction.TransactionManager,
	validator *service.VoucherValidator,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *VoucherApplicationService {
	return &VoucherApplicationService{
		voucherRepo:    voucherRepo,
		restaurantRepo: restaurantRepo,
		txManager:      txManager,
		validator:      validator,
		logger:         logger,
		metrics:        metrics,
		tracer:         otel.Tracer("voucher-service"),
	}
}

// CreateVoucher バウチャーを作成
func (s *VoucherApplicationService) CreateVoucher(ctx context.Context, req *CreateVoucherRequest) (*VoucherDTO, error) {
	ctx, span := s.tracer.Start(ctx, "VoucherApplicationService.CreateVoucher")
	defer span.End()

	span.SetAttributes(
		attribute.String("code", req.Code),
		attribute.String("discount_type", req.DiscountType),
		attribute.Int64("discount_value", req.DiscountValue),
	)

	s.logger.Info(ctx, "Creating voucher", map[string]interface{}{
		"code":          req.Code,
		"discount_type": req.DiscountType,
		"restaurant_id": req.RestaurantID,
	})

	discountType, err := voucher.NewDiscountType(req.DiscountType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	// 店舗限定の場合は店舗の存在チェック
	if req.RestaurantID != "" {
		exists, err := s.restaurantRepo.Exists(ctx, req.RestaurantID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, fmt.Errorf("failed to check restaurant: %w", err)
		}
		if !exists {
			err := restaurant.ErrRestaurantNotFound
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, err
		}
	}

	v, err := voucher.NewVoucher(
		s.generateVoucherID(),
		req.Code,
		discountType,
		req.DiscountValue,
		req.MinOrderValue,
		req.MaxDiscount,
		req.StartDate,
		req.EndDate,
		req.RestaurantID,
		req.UsageLimit,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	if err := s.voucherRepo.Create(ctx, v); err != nil {
		if err == voucher.ErrVoucherCodeExists {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, err
		}
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to create voucher", err, map[string]interface{}{
			"code": req.Code,
		})
		return nil, fmt.Errorf("failed to create voucher: %w", err)
	}

	s.logger.Info(ctx, "Voucher created successfully", map[string]interface{}{
		"voucher_id": v.ID(),
		"code":       v.Code(),
	})

	return NewVoucherDTO(v), nil
}

// UpdateVoucher バウチャーを更新（変更のあったフィールドのみチェックを行う）
func (s *VoucherApplicationService) UpdateVoucher(ctx context.Context, req *UpdateVoucherRequest) (*VoucherDTO, error) {
	ctx, span := s.tracer.Start(ctx, "VoucherApplicationService.UpdateVoucher")
	defer span.End()

	span.SetAttributes(attribute.String("voucher_id", req.ID))

	s.logger.Info(ctx, "Updating voucher", map[string]interface{}{
		"voucher_id": req.ID,
	})

	v, err := s.voucherRepo.FindByID(ctx, req.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	// コード変更時のみ一意性を再チェック
	if req.Code != nil && *req.Code != v.Code() {
		existing, err := s.voucherRepo.FindByCode(ctx, *req.Code)
		if err != nil && err != voucher.ErrVoucherNotFound {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, fmt.Errorf("failed to check code uniqueness: %w", err)
		}
		if existing != nil {
			err := voucher.ErrVoucherCodeExists
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, err
		}
		if err := v.ChangeCode(*req.Code); err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, err
		}
	}

	// 店舗スコープ変更時のみ存在チェック
	if req.RestaurantID != nil && *req.RestaurantID != v.RestaurantID() {
		if *req.RestaurantID != "" {
			exists, err := s.restaurantRepo.Exists(ctx, *req.RestaurantID)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(otelcodes.Error, err.Error())
				return nil, fmt.Errorf("failed to check restaurant: %w", err)
			}
			if !exists {
				err := restaurant.ErrRestaurantNotFound
				span.RecordError(err)
				span.SetStatus(otelcodes.Error, err.Error())
				return nil, err
			}
		}
		v.ChangeRestaurantScope(*req.RestaurantID)
	}

	if req.DiscountType != nil || req.DiscountValue != nil || req.MinOrderValue != nil || req.MaxDiscount != nil {
		discountType := v.DiscountType()
		if req.DiscountType != nil {
			discountType, err = voucher.NewDiscountType(*req.DiscountType)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(otelcodes.Error, err.Error())
				return nil, err
			}
		}
		discountValue := v.DiscountValue()
		if req.DiscountValue != nil {
			discountValue = *req.DiscountValue
		}
		minOrderValue := v.MinOrderValue()
		if req.MinOrderValue != nil {
			minOrderValue = *req.MinOrderValue
		}
		maxDiscount := v.MaxDiscount()
		if req.MaxDiscount != nil {
			maxDiscount = *req.MaxDiscount
		}
		if err := v.ChangeDiscount(discountType, discountValue, minOrderValue, maxDiscount); err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, err
		}
	}

	if req.StartDate != nil || req.EndDate != nil {
		startDate := v.StartDate()
		if req.StartDate != nil {
			startDate = *req.StartDate
		}
		endDate := v.EndDate()
		if req.EndDate != nil {
			endDate = *req.EndDate
		}
		if err := v.ChangeValidityPeriod(startDate, endDate); err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, err
		}
	}

	if req.UsageLimit != nil {
		if err := v.ChangeUsageLimit(*req.UsageLimit); err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, err
		}
	}

	if req.IsActive != nil {
		if *req.IsActive {
			v.Activate()
		} else {
			v.Deactivate()
		}
	}

	if err := s.voucherRepo.Update(ctx, v); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to update voucher", err, map[string]interface{}{
			"voucher_id": req.ID,
		})
		return nil, fmt.Errorf("failed to update voucher: %w", err)
	}

	s.logger.Info(ctx, "Voucher updated successfully", map[string]interface{}{
		"voucher_id": v.ID(),
	})

	return NewVoucherDTO(v), nil
}

// ArchiveVoucher バウチャーを無効化（ソフトデリート）
// 使用履歴の有無に関わらず常に許可される
func (s *VoucherApplicationService) ArchiveVoucher(ctx context.Context, id string) (*ArchiveVoucherResponse, error) {
	ctx, span := s.tracer.Start(ctx, "VoucherApplicationService.ArchiveVoucher")
	defer span.End()

	span.SetAttributes(attribute.String("voucher_id", id))

	v, err := s.voucherRepo.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	v.Deactivate()

	if err := s.voucherRepo.Update(ctx, v); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to archive voucher", err, map[string]interface{}{
			"voucher_id": id,
		})
		return nil, fmt.Errorf("failed to archive voucher: %w", err)
	}

	s.logger.Info(ctx, "Voucher archived", map[string]interface{}{
		"voucher_id": id,
	})

	return &ArchiveVoucherResponse{
		ID:         id,
		ArchivedAt: v.UpdatedAt(),
	}, nil
}

// PurgeVoucher バウチャーを物理削除
// 使用履歴が存在する場合は台帳の参照整合性を保つため拒否する
func (s *VoucherApplicationService) PurgeVoucher(ctx context.Context, id string) (*PurgeVoucherResponse, error) {
	ctx, span := s.tracer.Start(ctx, "VoucherApplicationService.PurgeVoucher")
	defer span.End()

	span.SetAttributes(attribute.String("voucher_id", id))

	if _, err := s.voucherRepo.FindByID(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	// 削除可否の判断は使用履歴の存在チェックで明示的に行う
	count, err := s.voucherRepo.CountUsage(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to count usage: %w", err)
	}
	if count > 0 {
		err := voucher.ErrVoucherHasUsage
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	if err := s.voucherRepo.Delete(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to purge voucher", err, map[string]interface{}{
			"voucher_id": id,
		})
		return nil, fmt.Errorf("failed to purge voucher: %w", err)
	}

	s.logger.Info(ctx, "Voucher purged", map[string]interface{}{
		"voucher_id": id,
	})

	return &PurgeVoucherResponse{
		ID:        id,
		DeletedAt: time.Now(),
	}, nil
}

// GetVoucher IDでバウチャーを取得
func (s *VoucherApplicationService) GetVoucher(ctx context.Context, id string) (*VoucherDTO, error) {
	ctx, span := s.tracer.Start(ctx, "VoucherApplicationService.GetVoucher")
	defer span.End()

	span.SetAttributes(attribute.String("voucher_id", id))

	v, err := s.voucherRepo.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	return NewVoucherDTO(v), nil
}

// GetVoucherByCode コードでバウチャーを取得
func (s *VoucherApplicationService) GetVoucherByCode(ctx context.Context, code string) (*VoucherDTO, error) {
	ctx, span := s.tracer.Start(ctx, "VoucherApplicationService.GetVoucherByCode")
	defer span.End()

	span.SetAttributes(attribute.String("code", code))

	v, err := s.voucherRepo.FindByCode(ctx, code)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	return NewVoucherDTO(v), nil
}

// ListVouchers バウチャーの一覧を取得
func (s *VoucherApplicationService) ListVouchers(ctx context.Context, req *ListVouchersRequest) (*ListVouchersResponse, error) {
	ctx, span := s.tracer.Start(ctx, "VoucherApplicationService.ListVouchers")
	defer span.End()

	span.SetAttributes(
		attribute.Int("page", req.Page),
		attribute.Int("limit", req.Limit),
		attribute.String("restaurant_id", req.RestaurantID),
	)

	// ページネーションパラメータのバリデーション
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Limit <= 0 {
		req.Limit = 20 // デフォルト値
	}
	if req.Limit > 100 {
		req.Limit = 100 // 最大値
	}

	var discountType voucher.DiscountType
	if req.DiscountType != "" {
		dt, err := voucher.NewDiscountType(req.DiscountType)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, err
		}
		discountType = dt
	}

	filter := voucher.ListFilter{
		RestaurantID: req.RestaurantID,
		IsActive:     req.IsActive,
		DiscountType: discountType,
		Code:         req.Code,
		Limit:        req.Limit,
		Offset:       (req.Page - 1) * req.Limit,
		SortBy:       req.SortBy,
		SortOrder:    req.SortOrder,
	}

	vouchers, total, err := s.voucherRepo.FindAll(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to list vouchers", err, nil)
		return nil, fmt.Errorf("failed to list vouchers: %w", err)
	}

	dtos := make([]*VoucherDTO, 0, len(vouchers))
	for _, v := range vouchers {
		dtos = append(dtos, NewVoucherDTO(v))
	}

	return &ListVouchersResponse{
		Vouchers: dtos,
		Total:    total,
		Page:     req.Page,
		Limit:    req.Limit,
	}, nil
}

// ValidateVoucher バウチャーの適用可否を検証し割引額を計算する
// 状態は一切変更しない。ビジネスルール違反はIsValid=falseの正常な結果であり、エラーではない
func (s *VoucherApplicationService) ValidateVoucher(ctx context.Context, req *ValidateVoucherRequest) (*ValidateVoucherResponse, error) {
	ctx, span := s.tracer.Start(ctx, "VoucherApplicationService.ValidateVoucher")
	defer span.End()

	span.SetAttributes(
		attribute.String("code", req.Code),
		attribute.Int64("order_value", req.OrderValue),
		attribute.String("restaurant_id", req.RestaurantID),
	)

	v, err := s.voucherRepo.FindByCode(ctx, req.Code)
	if err != nil && err != voucher.ErrVoucherNotFound {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find voucher: %w", err)
	}

	// 見つからない場合はバリデーターがVoucher not foundの結果を返す
	result := s.validator.Validate(v, service.OrderContext{
		OrderValue:   req.OrderValue,
		RestaurantID: req.RestaurantID,
	}, time.Now())

	if result.IsValid {
		s.metrics.RecordValidation(ctx, "valid")
		s.metrics.RecordDiscountAmount(ctx, result.Voucher.DiscountType().String(), result.DiscountAmount)
	} else {
		s.metrics.RecordValidation(ctx, "invalid")
		s.metrics.RecordRejection(ctx, result.ErrorMessage)
	}

	s.logger.Info(ctx, "Voucher validated", map[string]interface{}{
		"code":            req.Code,
		"is_valid":        result.IsValid,
		"discount_amount": result.DiscountAmount,
	})

	resp := &ValidateVoucherResponse{
		IsValid:        result.IsValid,
		DiscountAmount: result.DiscountAmount,
		FinalAmount:    result.FinalAmount,
		ErrorMessage:   result.ErrorMessage,
	}
	if result.Voucher != nil {
		resp.Voucher = NewVoucherDTO(result.Voucher)
	}

	return resp, nil
}

// UseVoucher バウチャーを引き換える
// 使用回数のインクリメントと使用履歴の追加を単一トランザクションで行う
// usage_limitの判定はインクリメントと同一トランザクション内の条件付き更新で強制される
func (s *VoucherApplicationService) UseVoucher(ctx context.Context, req *UseVoucherRequest) (*UseVoucherResponse, error) {
	ctx, span := s.tracer.Start(ctx, "VoucherApplicationService.UseVoucher")
	defer span.End()

	span.SetAttributes(
		attribute.String("code", req.Code),
		attribute.String("user_id", req.UserID),
	)

	s.logger.Info(ctx, "Using voucher", map[string]interface{}{
		"code":    req.Code,
		"user_id": req.UserID,
	})

	v, err := s.voucherRepo.FindByCode(ctx, req.Code)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	usageID := s.generateUsageID()
	usage := voucher.NewVoucherUsage(usageID, v.ID(), req.UserID, req.OrderID)

	var newUsedCount int
	err = s.txManager.WithTransaction(ctx, func(tx *sql.Tx) error {
		// 条件付きインクリメント: usage_limit到達時は0行更新となりErrUsageLimitReached
		count, err := s.voucherRepo.IncrementUsage(ctx, tx, v.ID())
		if err != nil {
			return err
		}
		newUsedCount = count
		if err := s.voucherRepo.SaveUsage(ctx, tx, usage); err != nil {
			return fmt.Errorf("failed to save usage: %w", err)
		}
		return nil
	})

	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to use voucher", err, map[string]interface{}{
			"code":    req.Code,
			"user_id": req.UserID,
		})
		s.metrics.RecordError(ctx, "voucher_redemption_failed")
		return nil, err
	}

	s.metrics.RecordRedemption(ctx, v.DiscountType().String())

	s.logger.Info(ctx, "Voucher used successfully", map[string]interface{}{
		"code":       req.Code,
		"user_id":    req.UserID,
		"usage_id":   usageID,
		"voucher_id": v.ID(),
	})

	return &UseVoucherResponse{
		UsageID:   usageID,
		VoucherID: v.ID(),
		Code:      v.Code(),
		UsedCount: newUsedCount,
		UsedAt:    usage.UsedAt(),
	}, nil
}

// GetUsageStats バウチャーの使用統計と直近の使用履歴を取得
func (s *VoucherApplicationService) GetUsageStats(ctx context.Context, req *UsageStatsRequest) (*UsageStatsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "VoucherApplicationService.GetUsageStats")
	defer span.End()

	span.SetAttributes(attribute.String("voucher_id", req.VoucherID))

	if req.Limit <= 0 {
		req.Limit = 20
	}
	if req.Limit > 100 {
		req.Limit = 100
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	v, err := s.voucherRepo.FindByID(ctx, req.VoucherID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	usages, err := s.voucherRepo.FindUsage(ctx, req.VoucherID, req.Limit, req.Offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find usage: %w", err)
	}

	usageDTOs := make([]*VoucherUsageDTO, 0, len(usages))
	for _, u := range usages {
		usageDTOs = append(usageDTOs, NewVoucherUsageDTO(u))
	}

	resp := &UsageStatsResponse{
		VoucherID:   v.ID(),
		Code:        v.Code(),
		TotalUses:   v.UsedCount(),
		UsageLimit:  v.UsageLimit(),
		RecentUsage: usageDTOs,
	}
	if pct, ok := v.UsagePercentage(); ok {
		resp.UsagePercentage = &pct
	}

	return resp, nil
}

// ListActiveVouchersByRestaurant 指定店舗で現在利用可能なバウチャーの一覧を取得
// 全店舗有効のバウチャーも含まれる
func (s *VoucherApplicationService) ListActiveVouchersByRestaurant(ctx context.Context, restaurantID string) (*ActiveVouchersResponse, error) {
	ctx, span := s.tracer.Start(ctx, "VoucherApplicationService.ListActiveVouchersByRestaurant")
	defer span.End()

	span.SetAttributes(attribute.String("restaurant_id", restaurantID))

	vouchers, err := s.voucherRepo.FindActiveByRestaurant(ctx, restaurantID, time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to list active vouchers", err, map[string]interface{}{
			"restaurant_id": restaurantID,
		})
		return nil, fmt.Errorf("failed to list active vouchers: %w", err)
	}

	dtos := make([]*VoucherDTO, 0, len(vouchers))
	for _, v := range vouchers {
		dtos = append(dtos, NewVoucherDTO(v))
	}

	return &ActiveVouchersResponse{
		RestaurantID: restaurantID,
		Vouchers:     dtos,
	}, nil
}

// generateVoucherID バウチャーIDを生成
func (s *VoucherApplicationService) generateVoucherID() string {
	return fmt.Sprintf("vch_%d", time.Now().UnixNano())
}

// generateUsageID 使用履歴IDを生成
func (s *VoucherApplicationService) generateUsageID() string {
	return fmt.Sprintf("usg_%d", time.Now().UnixNano())
}
