package handler

import (
	"errors"
	"net/http"
	"strconv"

	voucherapp "voucher-server/internal/application/voucher"
	"voucher-server/internal/domain/restaurant"
	"voucher-server/internal/domain/voucher"

	"github.com/labstack/echo/v4"
)

// VoucherHandler バウチャー関連ハンドラー
type VoucherHandler struct {
	voucherService *voucherapp.VoucherApplicationService
}

// NewVoucherHandler 新しいVoucherHandlerを作成
func NewVoucherHandler(voucherService *voucherapp.VoucherApplicationService) *VoucherHandler {
	return &VoucherHandler{
		voucherService: voucherService,
	}
}

// CreateVoucher バウチャー作成ハンドラー
// @Summary バウチャーを作成
// @Description 新しいバウチャーを作成します
// @Tags vouchers
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body CreateVoucherRequest true "バウチャー作成リクエスト"
// @Success 201 {object} APIResponse{data=VoucherData} "作成成功"
// @Failure 400 {object} APIResponse "不正なリクエスト"
// @Failure 409 {object} APIResponse "コードが重複"
// @Router /vouchers [post]
func (h *VoucherHandler) CreateVoucher(c echo.Context) error {
	var reqBody CreateVoucherRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	var issues []string
	if reqBody.Code == "" {
		issues = append(issues, "code is required")
	}
	if reqBody.StartDate.IsZero() {
		issues = append(issues, "start_date is required")
	}
	if reqBody.EndDate.IsZero() {
		issues = append(issues, "end_date is required")
	}
	if len(issues) > 0 {
		return c.JSON(http.StatusBadRequest, APIResponse{
			Message: "validation failed",
			Errors:  issues,
		})
	}

	resp, err := h.voucherService.CreateVoucher(c.Request().Context(), &voucherapp.CreateVoucherRequest{
		Code:          reqBody.Code,
		DiscountType:  reqBody.DiscountType,
		DiscountValue: reqBody.DiscountValue,
		MinOrderValue: reqBody.MinOrderValue,
		MaxDiscount:   reqBody.MaxDiscount,
		StartDate:     reqBody.StartDate,
		EndDate:       reqBody.EndDate,
		RestaurantID:  reqBody.RestaurantID,
		UsageLimit:    reqBody.UsageLimit,
	})
	if err != nil {
		if isDomainValidationError(err) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}

	return c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Data:    toVoucherData(resp),
	})
}

// ListVouchers バウチャー一覧取得ハンドラー
// @Summary バウチャーの一覧を取得
// @Description 絞り込み条件・ページネーション付きでバウチャーの一覧を取得します
// @Tags vouchers
// @Produce json
// @Security Bearer
// @Param restaurant_id query string false "店舗ID"
// @Param is_active query bool false "有効フラグ"
// @Param discount_type query string false "割引タイプ" Enums(percentage, fixed_amount)
// @Param code query string false "コード（部分一致）"
// @Param page query int false "ページ番号" default(1)
// @Param limit query int false "1ページあたりの件数" default(20)
// @Param sort_by query string false "ソートキー" Enums(created_at, updated_at, code, start_date, end_date, used_count)
// @Param sort_order query string false "ソート順" Enums(asc, desc)
// @Success 200 {object} APIResponse{data=[]VoucherData} "取得成功"
// @Failure 400 {object} APIResponse "不正なリクエスト"
// @Router /vouchers [get]
func (h *VoucherHandler) ListVouchers(c echo.Context) error {
	req := &voucherapp.ListVouchersRequest{
		RestaurantID: c.QueryParam("restaurant_id"),
		DiscountType: c.QueryParam("discount_type"),
		Code:         c.QueryParam("code"),
		SortBy:       c.QueryParam("sort_by"),
		SortOrder:    c.QueryParam("sort_order"),
	}

	if s := c.QueryParam("is_active"); s != "" {
		isActive, err := strconv.ParseBool(s)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid is_active")
		}
		req.IsActive = &isActive
	}
	if s := c.QueryParam("page"); s != "" {
		page, err := strconv.Atoi(s)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid page")
		}
		req.Page = page
	}
	if s := c.QueryParam("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		req.Limit = limit
	}

	resp, err := h.voucherService.ListVouchers(c.Request().Context(), req)
	if err != nil {
		if isDomainValidationError(err) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}

	vouchers := make([]VoucherData, 0, len(resp.Vouchers))
	for _, dto := range resp.Vouchers {
		vouchers = append(vouchers, toVoucherData(dto))
	}

	totalPages := 0
	if resp.Limit > 0 {
		totalPages = (resp.Total + resp.Limit - 1) / resp.Limit
	}

	return c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    vouchers,
		Pagination: &Pagination{
			Page:       resp.Page,
			Limit:      resp.Limit,
			Total:      resp.Total,
			TotalPages: totalPages,
		},
	})
}

// GetVoucher バウチャー取得ハンドラー
// @Summary バウチャーを取得
// @Description IDでバウチャーを取得します
// @Tags vouchers
// @Produce json
// @Security Bearer
// @Param id path string true "バウチャーID"
// @Success 200 {object} APIResponse{data=VoucherData} "取得成功"
// @Failure 404 {object} APIResponse "バウチャーが見つからない"
// @Router /vouchers/{id} [get]
func (h *VoucherHandler) GetVoucher(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "id is required")
	}

	resp, err := h.voucherService.GetVoucher(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    toVoucherData(resp),
	})
}

// GetVoucherByCode コードでのバウチャー取得ハンドラー
// @Summary コードでバウチャーを取得
// @Description コードでバウチャーを取得します
// @Tags vouchers
// @Produce json
// @Security Bearer
// @Param code path string true "バウチャーコード"
// @Success 200 {object} APIResponse{data=VoucherData} "取得成功"
// @Failure 404 {object} APIResponse "バウチャーが見つからない"
// @Router /vouchers/code/{code} [get]
func (h *VoucherHandler) GetVoucherByCode(c echo.Context) error {
	code := c.Param("code")
	if code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code is required")
	}

	resp, err := h.voucherService.GetVoucherByCode(c.Request().Context(), code)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    toVoucherData(resp),
	})
}

// UpdateVoucher バウチャー更新ハンドラー
// @Summary バウチャーを更新
// @Description バウチャーの指定されたフィールドのみを更新します
// @Tags vouchers
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "バウチャーID"
// @Param request body UpdateVoucherRequest true "バウチャー更新リクエスト"
// @Success 200 {object} APIResponse{data=VoucherData} "更新成功"
// @Failure 400 {object} APIResponse "不正なリクエスト"
// @Failure 404 {object} APIResponse "バウチャーが見つからない"
// @Failure 409 {object} APIResponse "コードが重複"
// @Router /vouchers/{id} [put]
func (h *VoucherHandler) UpdateVoucher(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "id is required")
	}

	var reqBody UpdateVoucherRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	resp, err := h.voucherService.UpdateVoucher(c.Request().Context(), &voucherapp.UpdateVoucherRequest{
		ID:            id,
		Code:          reqBody.Code,
		DiscountType:  reqBody.DiscountType,
		DiscountValue: reqBody.DiscountValue,
		MinOrderValue: reqBody.MinOrderValue,
		MaxDiscount:   reqBody.MaxDiscount,
		StartDate:     reqBody.StartDate,
		EndDate:       reqBody.EndDate,
		RestaurantID:  reqBody.RestaurantID,
		UsageLimit:    reqBody.UsageLimit,
		IsActive:      reqBody.IsActive,
	})
	if err != nil {
		if isDomainValidationError(err) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}

	return c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    toVoucherData(resp),
	})
}

// ArchiveVoucher バウチャー無効化ハンドラー
// @Summary バウチャーを無効化
// @Description バウチャーを無効化します（ソフトデリート）。使用履歴は保持されます
// @Tags vouchers
// @Produce json
// @Security Bearer
// @Param id path string true "バウチャーID"
// @Success 200 {object} APIResponse{data=ArchiveVoucherData} "無効化成功"
// @Failure 404 {object} APIResponse "バウチャーが見つからない"
// @Router /vouchers/{id} [delete]
func (h *VoucherHandler) ArchiveVoucher(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "id is required")
	}

	resp, err := h.voucherService.ArchiveVoucher(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data: ArchiveVoucherData{
			ID:         resp.ID,
			ArchivedAt: resp.ArchivedAt,
		},
	})
}

// PurgeVoucher バウチャー物理削除ハンドラー
// @Summary バウチャーを物理削除
// @Description 使用履歴のないバウチャーを物理削除します。使用履歴がある場合は409を返します
// @Tags vouchers
// @Produce json
// @Security Bearer
// @Param id path string true "バウチャーID"
// @Success 200 {object} APIResponse{data=PurgeVoucherData} "削除成功"
// @Failure 404 {object} APIResponse "バウチャーが見つからない"
// @Failure 409 {object} APIResponse "使用履歴が存在する"
// @Router /vouchers/{id}/hard [delete]
func (h *VoucherHandler) PurgeVoucher(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "id is required")
	}

	resp, err := h.voucherService.PurgeVoucher(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data: PurgeVoucherData{
			ID:        resp.ID,
			DeletedAt: resp.DeletedAt,
		},
	})
}

// ValidateVoucher バウチャー検証ハンドラー
// 状態を変更しない読み取り専用操作。ビジネスルール違反はis_valid=falseの200で返る
// @Summary バウチャーの適用可否を検証
// @Description 注文に対するバウチャーの適用可否を検証し、割引額を計算します
// @Tags vouchers
// @Accept json
// @Produce json
// @Param X-API-Key header string true "APIキー"
// @Param request body ValidateVoucherRequest true "バウチャー検証リクエスト"
// @Success 200 {object} APIResponse{data=ValidateVoucherData} "検証完了"
// @Failure 400 {object} APIResponse "不正なリクエスト"
// @Router /vouchers/validate [post]
func (h *VoucherHandler) ValidateVoucher(c echo.Context) error {
	var reqBody ValidateVoucherRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if reqBody.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code is required")
	}
	if reqBody.OrderValue < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "order_value must not be negative")
	}

	resp, err := h.voucherService.ValidateVoucher(c.Request().Context(), &voucherapp.ValidateVoucherRequest{
		Code:         reqBody.Code,
		OrderValue:   reqBody.OrderValue,
		RestaurantID: reqBody.RestaurantID,
	})
	if err != nil {
		return err
	}

	data := ValidateVoucherData{
		IsValid:        resp.IsValid,
		DiscountAmount: resp.DiscountAmount,
		FinalAmount:    resp.FinalAmount,
		ErrorMessage:   resp.ErrorMessage,
	}
	if resp.Voucher != nil {
		v := toVoucherData(resp.Voucher)
		data.Voucher = &v
	}

	return c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// UseVoucher バウチャー引き換えハンドラー
// @Summary バウチャーを引き換え
// @Description バウチャーの使用回数をインクリメントし、使用履歴を記録します
// @Tags vouchers
// @Accept json
// @Produce json
// @Param X-API-Key header string true "APIキー"
// @Param request body UseVoucherRequest true "バウチャー引き換えリクエスト"
// @Success 200 {object} APIResponse{data=UseVoucherData} "引き換え成功"
// @Failure 400 {object} APIResponse "不正なリクエスト"
// @Failure 409 {object} APIResponse "使用上限に到達"
// @Router /vouchers/use [post]
func (h *VoucherHandler) UseVoucher(c echo.Context) error {
	var reqBody UseVoucherRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if reqBody.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code is required")
	}
	if reqBody.UserID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	resp, err := h.voucherService.UseVoucher(c.Request().Context(), &voucherapp.UseVoucherRequest{
		Code:    reqBody.Code,
		UserID:  reqBody.UserID,
		OrderID: reqBody.OrderID,
	})
	if err != nil {
		// 引き換えではコードはリクエストボディの入力値のため、未知のコードは入力不正として扱う
		if errors.Is(err, voucher.ErrVoucherNotFound) {
			return echo.NewHTTPError(http.StatusBadRequest, "Voucher not found")
		}
		return err
	}

	return c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data: UseVoucherData{
			UsageID:   resp.UsageID,
			VoucherID: resp.VoucherID,
			Code:      resp.Code,
			UsedCount: resp.UsedCount,
			UsedAt:    resp.UsedAt,
		},
	})
}

// GetUsageStats バウチャー使用統計取得ハンドラー
// @Summary バウチャーの使用統計を取得
// @Description 使用回数・使用率と直近の使用履歴を取得します
// @Tags vouchers
// @Produce json
// @Security Bearer
// @Param id path string true "バウチャーID"
// @Param limit query int false "使用履歴の取得件数" default(20)
// @Param offset query int false "使用履歴のオフセット" default(0)
// @Success 200 {object} APIResponse{data=UsageStatsData} "取得成功"
// @Failure 404 {object} APIResponse "バウチャーが見つからない"
// @Router /vouchers/{id}/usage [get]
func (h *VoucherHandler) GetUsageStats(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "id is required")
	}

	req := &voucherapp.UsageStatsRequest{VoucherID: id}
	if s := c.QueryParam("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		req.Limit = limit
	}
	if s := c.QueryParam("offset"); s != "" {
		offset, err := strconv.Atoi(s)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid offset")
		}
		req.Offset = offset
	}

	resp, err := h.voucherService.GetUsageStats(c.Request().Context(), req)
	if err != nil {
		return err
	}

	recentUsage := make([]UsageItem, 0, len(resp.RecentUsage))
	for _, u := range resp.RecentUsage {
		recentUsage = append(recentUsage, UsageItem{
			UsageID:   u.UsageID,
			VoucherID: u.VoucherID,
			UserID:    u.UserID,
			OrderID:   u.OrderID,
			UsedAt:    u.UsedAt,
		})
	}

	return c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data: UsageStatsData{
			VoucherID:       resp.VoucherID,
			Code:            resp.Code,
			TotalUses:       resp.TotalUses,
			UsageLimit:      resp.UsageLimit,
			UsagePercentage: resp.UsagePercentage,
			RecentUsage:     recentUsage,
		},
	})
}

// ListActiveVouchers 店舗で利用可能なバウチャー一覧取得ハンドラー
// @Summary 店舗で利用可能なバウチャーの一覧を取得
// @Description 指定店舗で現在利用可能なバウチャーを取得します。全店舗有効のバウチャーも含まれます
// @Tags vouchers
// @Produce json
// @Param X-API-Key header string true "APIキー"
// @Param restaurant_id path string true "店舗ID"
// @Success 200 {object} APIResponse{data=ActiveVouchersData} "取得成功"
// @Failure 400 {object} APIResponse "不正なリクエスト"
// @Router /vouchers/restaurant/{restaurant_id}/active [get]
func (h *VoucherHandler) ListActiveVouchers(c echo.Context) error {
	restaurantID := c.Param("restaurant_id")
	if restaurantID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "restaurant_id is required")
	}

	resp, err := h.voucherService.ListActiveVouchersByRestaurant(c.Request().Context(), restaurantID)
	if err != nil {
		return err
	}

	vouchers := make([]VoucherData, 0, len(resp.Vouchers))
	for _, dto := range resp.Vouchers {
		vouchers = append(vouchers, toVoucherData(dto))
	}

	return c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data: ActiveVouchersData{
			RestaurantID: resp.RestaurantID,
			Vouchers:     vouchers,
		},
	})
}

// toVoucherData アプリケーション層DTOをワイヤ表現に変換
func toVoucherData(dto *voucherapp.VoucherDTO) VoucherData {
	return VoucherData{
		ID:            dto.ID,
		Code:          dto.Code,
		DiscountType:  dto.DiscountType,
		DiscountValue: dto.DiscountValue,
		MinOrderValue: dto.MinOrderValue,
		MaxDiscount:   dto.MaxDiscount,
		StartDate:     dto.StartDate,
		EndDate:       dto.EndDate,
		RestaurantID:  dto.RestaurantID,
		UsageLimit:    dto.UsageLimit,
		UsedCount:     dto.UsedCount,
		IsActive:      dto.IsActive,
		CreatedAt:     dto.CreatedAt,
		UpdatedAt:     dto.UpdatedAt,
	}
}

// isDomainValidationError エンティティの不変条件違反による入力エラーかどうかを判定
// ドメイン層はフィールド検証をerrors.Newで返すため、既知のセンチネルエラー以外の
// 非ラップエラーを入力不正として扱う
func isDomainValidationError(err error) bool {
	if errors.Is(err, voucher.ErrVoucherNotFound) ||
		errors.Is(err, voucher.ErrVoucherCodeExists) ||
		errors.Is(err, voucher.ErrUsageLimitReached) ||
		errors.Is(err, voucher.ErrVoucherHasUsage) ||
		errors.Is(err, restaurant.ErrRestaurantNotFound) {
		return false
	}
	return errors.Unwrap(err) == nil
}
