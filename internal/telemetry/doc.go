// Package telemetry provides OpenTelemetry instrumentation for embedd.
//
// Telemetry owns the TracerProvider and MeterProvider, exports over OTLP
// (gRPC or HTTP/protobuf) and degrades to no-op providers when an exporter
// cannot be built. It never fails the daemon.
//
//	tel, err := telemetry.New(ctx, telemetry.FromConfig(cfg.Telemetry))
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(ctx)
//
//	metrics := embedder.NewMetricsWithMeter(tel.Meter("embedd"), logger)
//
// Tests use NewTestTelemetry, which records spans and metrics in memory.
package telemetry
