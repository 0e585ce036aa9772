package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"voucher-server/internal/domain/restaurant"
	"voucher-server/internal/domain/voucher"
	otelinfra "voucher-server/internal/infrastructure/observability/otel"
)

// ErrorResponse エラーレスポンス
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ErrorHandlerMiddleware エラーハンドリングミドルウェア
func ErrorHandlerMiddleware(logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			// エラーハンドリング
			return handleError(c, err, logger)
		}
	}
}

// handleError エラーを処理して適切なHTTPレスポンスを返す
func handleError(c echo.Context, err error, logger *otelinfra.Logger) error {
	ctx := c.Request().Context()

	// ドメインエラーの判定と処理
	if errors.Is(err, voucher.ErrVoucherNotFound) {
		logger.Warn(ctx, "Voucher not found", map[string]interface{}{
			"error": err.Error(),
			"path":  c.Request().URL.Path,
		})
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "voucher_not_found",
			Message: "Voucher not found",
		})
	}

	if errors.Is(err, voucher.ErrVoucherCodeExists) {
		logger.Warn(ctx, "Voucher code already exists", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "voucher_code_exists",
			Message: "Voucher code already exists",
		})
	}

	if errors.Is(err, voucher.ErrUsageLimitReached) {
		logger.Warn(ctx, "Voucher usage limit reached", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "usage_limit_reached",
			Message: "Voucher usage limit reached",
		})
	}

	if errors.Is(err, voucher.ErrVoucherHasUsage) {
		logger.Warn(ctx, "Voucher has usage history", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "voucher_has_usage",
			Message: "Voucher with usage history cannot be deleted, archive it instead",
		})
	}

	// 店舗は直接取得されることがないため、参照エラーは常に入力不正として扱う
	if errors.Is(err, restaurant.ErrRestaurantNotFound) {
		logger.Warn(ctx, "Restaurant not found", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "restaurant_not_found",
			Message: "Restaurant not found",
		})
	}

	// EchoのHTTPエラー
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		logger.Warn(ctx, "HTTP error", map[string]interface{}{
			"status_code": httpErr.Code,
			"message":     httpErr.Message,
		})
		message := ""
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(httpErr.Code)
		}
		return c.JSON(httpErr.Code, ErrorResponse{
			Error:   http.StatusText(httpErr.Code),
			Message: message,
		})
	}

	// 予期しないエラー
	logger.Error(ctx, "Internal server error", err, map[string]interface{}{
		"path": c.Request().URL.Path,
	})
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_server_error",
		Message: "An unexpected error occurred",
	})
}
