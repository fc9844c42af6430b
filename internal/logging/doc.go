// Package logging provides structured logging with OpenTelemetry integration.
//
// # Overview
//
// Logging package wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - Dual output (stdout + OpenTelemetry)
//   - Automatic context field injection (trace_id, request id, embed target)
//   - Secret redaction at the encoder
//   - Level-aware sampling (errors never sampled)
//
// # Usage
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg, otelProvider)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithEmbedTarget(ctx, "fastembed", "AllMiniLML6V2")
//	logger.Info(ctx, "model loaded", zap.Duration("took", d))
//
// Output:
//
//	{
//	  "ts": "2025-11-24T10:15:30Z",
//	  "level": "info",
//	  "msg": "model loaded",
//	  "embed.method": "fastembed",
//	  "embed.model": "AllMiniLML6V2",
//	  "took": "1.2s"
//	}
//
// # Configuration Precedence
//
//  1. Defaults (NewDefaultConfig)
//  2. File (config.yaml, logging section)
//  3. Environment variables (LOGGING_*)
//
// # Testing
//
//	tl := logging.NewTestLogger()
//	tl.Info(ctx, "test message", zap.String("key", "value"))
//	tl.AssertLogged(t, zapcore.InfoLevel, "test message")
//	tl.AssertField(t, "test message", "key", "value")
//
// Logger is safe for concurrent use. Child loggers (With, Named) are
// independent and do not affect parent or siblings.
package logging
