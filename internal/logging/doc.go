// Package logging provides structured logging for the estimator.
//
// Logging wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - Automatic context field injection (trace_id, span_id, session.id, request.id)
//   - Secret redaction by field name and value pattern
//   - Level-aware sampling (errors never sampled)
//
// # Usage
//
//	cfg, err := logging.FromAppConfig(appCfg.Logging)
//	if err != nil {
//	    return err
//	}
//	logger, err := logging.NewLogger(cfg)
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithSessionID(ctx, sess.ID)
//	logger.Info(ctx, "lead submitted", logging.MaskedEmail("email", contact.Email))
//
// Domain packages take a *zap.Logger (Logger.Underlying) and default to
// zap.NewNop() when none is given.
//
// # Testing
//
//	tl := logging.NewTestLogger()
//	tl.Info(ctx, "test message", zap.String("key", "value"))
//	tl.AssertLogged(t, zapcore.InfoLevel, "test message")
//	tl.AssertNoSecrets(t)
package logging
