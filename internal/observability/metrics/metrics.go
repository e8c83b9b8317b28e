package metrics

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	feeComputations    metric.Int64Counter
	commissionPayments metric.Int64Counter
	paymentRejections  metric.Int64Counter
	refundRequests     metric.Int64Counter
	walletTopUps       metric.Int64Counter
	httpRequests       metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "adfin"
	}
	meter := provider.Meter(name)

	feeComputations, err := meter.Int64Counter("adfin_fee_computations_total")
	if err != nil {
		return nil, err
	}
	commissionPayments, err := meter.Int64Counter("adfin_commission_payments_total")
	if err != nil {
		return nil, err
	}
	paymentRejections, err := meter.Int64Counter("adfin_payment_rejections_total")
	if err != nil {
		return nil, err
	}
	refundRequests, err := meter.Int64Counter("adfin_refund_requests_total")
	if err != nil {
		return nil, err
	}
	walletTopUps, err := meter.Int64Counter("adfin_wallet_topups_total")
	if err != nil {
		return nil, err
	}
	httpRequests, err := meter.Int64Counter("adfin_http_requests_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		feeComputations:    feeComputations,
		commissionPayments: commissionPayments,
		paymentRejections:  paymentRejections,
		refundRequests:     refundRequests,
		walletTopUps:       walletTopUps,
		httpRequests:       httpRequests,
	}, nil
}

// RecordFeeComputation increments fee computation counts.
func (m *Metrics) RecordFeeComputation(ctx context.Context, platform, recordType string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("platform", strings.TrimSpace(platform)),
		attribute.String("record_type", strings.TrimSpace(recordType)),
	)
	m.feeComputations.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCommissionPayment increments recorded payout counts.
func (m *Metrics) RecordCommissionPayment(ctx context.Context, state string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("state", strings.TrimSpace(state)))
	m.commissionPayments.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordPaymentRejection increments rejected payout counts.
func (m *Metrics) RecordPaymentRejection(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("reason", strings.TrimSpace(reason)))
	m.paymentRejections.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRefundRequest increments refund request counts.
func (m *Metrics) RecordRefundRequest(ctx context.Context, platform string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("platform", strings.TrimSpace(platform)))
	m.refundRequests.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordWalletTopUp increments wallet top-up request counts.
func (m *Metrics) RecordWalletTopUp(ctx context.Context, status string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("status", strings.TrimSpace(status)))
	m.walletTopUps.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordHTTPRequest increments per-route request counts. The endpoint is
// the route template, never the raw path, to keep cardinality bounded.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, endpoint string, status int) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("endpoint", strings.TrimSpace(endpoint)),
		attribute.String("status_code", strconv.Itoa(status)),
	)
	m.httpRequests.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"platform":    {},
	"record_type": {},
	"state":       {},
	"status":      {},
	"reason":      {},
	"endpoint":    {},
	"status_code": {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
