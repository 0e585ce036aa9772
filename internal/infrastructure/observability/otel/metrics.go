package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics メトリクス定義
type Metrics struct {
	// バウチャー検証数（結果別）
	ValidationCount metric.Int64Counter

	// バウチャー引き換え数
	RedemptionCount metric.Int64Counter

	// 検証却下数（理由別）
	RejectionCount metric.Int64Counter

	// 割引額の分布
	DiscountAmount metric.Int64Histogram

	// リクエスト数
	RequestCount metric.Int64Counter

	// レスポンス時間
	ResponseTime metric.Float64Histogram

	// エラー率
	ErrorCount metric.Int64Counter
}

// NewMetrics 新しいMetricsを作成
func NewMetrics(meterName string) (*Metrics, error) {
	meter := otel.Meter(meterName)

	validationCount, err := meter.Int64Counter(
		"voucher_validations_total",
		metric.WithDescription("Total number of voucher validations"),
	)
	if err != nil {
		return nil, err
	}

	redemptionCount, err := meter.Int64Counter(
		"voucher_redemptions_total",
		metric.WithDescription("Total number of voucher redemptions"),
	)
	if err != nil {
		return nil, err
	}

	rejectionCount, err := meter.Int64Counter(
		"voucher_rejections_total",
		metric.WithDescription("Total number of rejected voucher validations"),
	)
	if err != nil {
		return nil, err
	}

	discountAmount, err := meter.Int64Histogram(
		"voucher_discount_amount",
		metric.WithDescription("Computed discount amount distribution"),
	)
	if err != nil {
		return nil, err
	}

	requestCount, err := meter.Int64Counter(
		"requests_total",
		metric.WithDescription("Total number of requests"),
	)
	if err != nil {
		return nil, err
	}

	responseTime, err := meter.Float64Histogram(
		"response_time_seconds",
		metric.WithDescription("Response time in seconds"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"errors_total",
		metric.WithDescription("Total number of errors"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		ValidationCount: validationCount,
		RedemptionCount: redemptionCount,
		RejectionCount:  rejectionCount,
		DiscountAmount:  discountAmount,
		RequestCount:    requestCount,
		ResponseTime:    responseTime,
		ErrorCount:      errorCount,
	}, nil
}

// RecordValidation バウチャー検証を記録
func (m *Metrics) RecordValidation(ctx context.Context, result string) {
	m.ValidationCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("result", result),
		),
	)
}

// RecordRedemption バウチャー引き換えを記録
func (m *Metrics) RecordRedemption(ctx context.Context, discountType string) {
	m.RedemptionCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("discount_type", discountType),
		),
	)
}

// RecordRejection 検証却下を記録
func (m *Metrics) RecordRejection(ctx context.Context, reason string) {
	m.RejectionCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("reason", reason),
		),
	)
}

// RecordDiscountAmount 割引額を記録
func (m *Metrics) RecordDiscountAmount(ctx context.Context, discountType string, amount int64) {
	m.DiscountAmount.Record(ctx, amount,
		metric.WithAttributes(
			attribute.String("discount_type", discountType),
		),
	)
}

// RecordRequest リクエストを記録
func (m *Metrics) RecordRequest(ctx context.Context, method, path string) {
	m.RequestCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordResponseTime レスポンス時間を記録
func (m *Metrics) RecordResponseTime(ctx context.Context, method, path string, duration float64) {
	m.ResponseTime.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordError エラーを記録
func (m *Metrics) RecordError(ctx context.Context, errorType string) {
	m.ErrorCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("error_type", errorType),
		),
	)
}
