package rest

import (
	"net/http"

	voucherapp "voucher-server/internal/application/voucher"
	"voucher-server/internal/infrastructure/config"
	otelinfra "voucher-server/internal/infrastructure/observability/otel"
	"voucher-server/internal/infrastructure/persistence/postgres"
	"voucher-server/internal/presentation/rest/handler"
	restmiddleware "voucher-server/internal/presentation/rest/middleware"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Router REST APIルーター
type Router struct {
	echo           *echo.Echo
	voucherHandler *handler.VoucherHandler
}

// NewRouter 新しいRouterを作成
func NewRouter(
	cfg *config.Config,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
	db *postgres.DB,
	voucherService *voucherapp.VoucherApplicationService,
) (*Router, error) {
	e := echo.New()

	// Echoのデフォルトエラーハンドラーを無効化（カスタムエラーハンドラーを使用）
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		// エラーハンドリングミドルウェアで処理される
	}

	// ミドルウェアの設定
	setupMiddleware(e, cfg, logger, metrics)

	// ハンドラーの作成
	voucherHandler := handler.NewVoucherHandler(voucherService)

	// ルーティングの設定
	setupRoutes(e, cfg, logger, db, voucherHandler)

	// Swagger UI / ReDoc統合
	SetupSwagger(e)

	return &Router{
		echo:           e,
		voucherHandler: voucherHandler,
	}, nil
}

// setupMiddleware ミドルウェアを設定
func setupMiddleware(e *echo.Echo, cfg *config.Config, logger *otelinfra.Logger, metrics *otelinfra.Metrics) {
	// リカバリーミドルウェア
	e.Use(middleware.Recover())

	// CORS設定
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"}, // 本番環境では適切に設定
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE, echo.OPTIONS},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "X-API-Key"},
	}))

	// リクエストIDの設定
	e.Use(middleware.RequestID())

	// セキュリティヘッダーの設定
	e.Use(restmiddleware.SecurityHeadersMiddleware())

	// トレーシングミドルウェア
	e.Use(restmiddleware.TracingMiddleware())

	// ログミドルウェア
	e.Use(restmiddleware.LoggingMiddleware(logger))

	// メトリクスミドルウェア
	e.Use(restmiddleware.MetricsMiddleware(metrics))

	// エラーハンドリングミドルウェア
	e.Use(restmiddleware.ErrorHandlerMiddleware(logger))
}

// setupRoutes ルーティングを設定
func setupRoutes(
	e *echo.Echo,
	cfg *config.Config,
	logger *otelinfra.Logger,
	db *postgres.DB,
	voucherHandler *handler.VoucherHandler,
) {
	// API v1グループ
	api := e.Group("/api/v1")
	vouchers := api.Group("/vouchers")

	auth := restmiddleware.AuthMiddleware(&cfg.JWT, logger)
	apiKey := restmiddleware.APIKeyMiddleware(&cfg.GatewayAPI, logger)

	// 管理系エンドポイント（JWT認証）
	vouchers.POST("", voucherHandler.CreateVoucher, auth)
	vouchers.GET("", voucherHandler.ListVouchers, auth)
	vouchers.GET("/:id", voucherHandler.GetVoucher, auth)
	vouchers.GET("/code/:code", voucherHandler.GetVoucherByCode, auth)
	vouchers.PUT("/:id", voucherHandler.UpdateVoucher, auth)
	vouchers.DELETE("/:id", voucherHandler.ArchiveVoucher, auth)
	vouchers.DELETE("/:id/hard", voucherHandler.PurgeVoucher, auth)
	vouchers.GET("/:id/usage", voucherHandler.GetUsageStats, auth)

	// 注文ゲートウェイ向けエンドポイント（APIキー認証）
	vouchers.POST("/validate", voucherHandler.ValidateVoucher, apiKey)
	vouchers.POST("/use", voucherHandler.UseVoucher, apiKey)
	vouchers.GET("/restaurant/:restaurant_id/active", voucherHandler.ListActiveVouchers, apiKey)

	// ヘルスチェックエンドポイント（認証不要）
	e.GET("/health", func(c echo.Context) error {
		if db != nil {
			if err := db.HealthCheck(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "unavailable",
				})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}

// Start サーバーを起動
func (r *Router) Start(address string) error {
	return r.echo.Start(address)
}

// Shutdown サーバーをシャットダウン
func (r *Router) Shutdown() error {
	return r.echo.Close()
}
