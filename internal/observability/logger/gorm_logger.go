package logger

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

// Tables whose UPDATEs are compare-and-set guards: stock decrement, device
// occupancy and the ACTIVE -> COMPLETED transition.
var guardedTables = map[string]bool{
	"products": true,
	"devices":  true,
	"sessions": true,
}

type GormLoggerConfig struct {
	Level         gormlogger.LogLevel
	SlowThreshold time.Duration
	// IgnoreRecordNotFound keeps lookups of missing devices, profiles and sessions out of the error log.
	IgnoreRecordNotFound bool
	// LogGuardMisses reports UPDATEs on guarded tables that matched no row.
	LogGuardMisses bool
}

func DefaultGormLoggerConfig() GormLoggerConfig {
	return GormLoggerConfig{
		Level:                gormlogger.Warn,
		SlowThreshold:        200 * time.Millisecond,
		IgnoreRecordNotFound: true,
		LogGuardMisses:       true,
	}
}

// GormLogger routes gorm output through the request-scoped zap logger.
type GormLogger struct {
	cfg GormLoggerConfig
}

func NewGormLogger(cfg GormLoggerConfig) *GormLogger {
	return &GormLogger{cfg: cfg}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cfg := l.cfg
	cfg.Level = level
	return &GormLogger{cfg: cfg}
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.message(ctx, gormlogger.Info, msg, data)
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.message(ctx, gormlogger.Warn, msg, data)
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.message(ctx, gormlogger.Error, msg, data)
}

func (l *GormLogger) message(ctx context.Context, level gormlogger.LogLevel, msg string, data []interface{}) {
	if l.cfg.Level < level {
		return
	}
	fields := []zap.Field{zap.String("component", "gorm")}
	if len(data) > 0 {
		fields = append(fields, zap.Any("data", data))
	}
	if ce := FromContext(ctx).Check(zapLevel(level), msg); ce != nil {
		ce.Write(fields...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.cfg.Level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	if l.cfg.IgnoreRecordNotFound && errors.Is(err, gormlogger.ErrRecordNotFound) {
		err = nil
	}

	var (
		sql  string
		rows int64
	)
	if err != nil || elapsed > l.cfg.SlowThreshold || l.cfg.LogGuardMisses || l.cfg.Level >= gormlogger.Info {
		sql, rows = fc()
	}
	stmt := parseStatement(sql)

	msg, level, ok := l.classify(stmt, rows, elapsed, err)
	if !ok {
		return
	}

	fields := []zap.Field{
		zap.String("component", "gorm"),
		zap.String("operation", stmt.operation),
		zap.String("table", stmt.table),
		zap.Int64("duration_ms", elapsed.Milliseconds()),
		zap.String("sql", strings.TrimSpace(sql)),
	}
	if rows >= 0 {
		fields = append(fields, zap.Int64("rows_affected", rows))
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	if ce := FromContext(ctx).Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}

// classify picks the message and level for a traced statement, or reports that it is not logged.
func (l *GormLogger) classify(stmt statement, rows int64, elapsed time.Duration, err error) (string, zapcore.Level, bool) {
	switch {
	case err != nil && l.cfg.Level >= gormlogger.Error:
		return "db.query_failed", zap.ErrorLevel, true
	case l.cfg.SlowThreshold > 0 && elapsed > l.cfg.SlowThreshold && l.cfg.Level >= gormlogger.Warn:
		return "db.slow_query", zap.WarnLevel, true
	case l.cfg.LogGuardMisses && l.cfg.Level >= gormlogger.Warn && stmt.isGuardMiss(rows):
		return "db.guard_missed", zap.InfoLevel, true
	case l.cfg.Level >= gormlogger.Info:
		return "db.query", zap.DebugLevel, true
	default:
		return "", zapcore.InvalidLevel, false
	}
}

// Bound values are dropped; ids and amounts are logged by the services.
func (l *GormLogger) ParamsFilter(_ context.Context, sql string, _ ...interface{}) (string, []interface{}) {
	return sql, nil
}

type statement struct {
	operation string
	table     string
}

func (s statement) isGuardMiss(rows int64) bool {
	return s.operation == "UPDATE" && rows == 0 && guardedTables[s.table]
}

// parseStatement finds the first DML keyword and the table it targets.
func parseStatement(sql string) statement {
	tokens := strings.Fields(strings.TrimSpace(sql))
	stmt := statement{operation: "UNKNOWN"}
	for i, raw := range tokens {
		token := strings.ToUpper(strings.Trim(raw, "();"))
		var tableAfter string
		switch token {
		case "SELECT", "DELETE":
			tableAfter = "FROM"
		case "INSERT":
			tableAfter = "INTO"
		case "UPDATE":
			stmt.operation = token
			if i+1 < len(tokens) {
				stmt.table = tableName(tokens[i+1])
			}
			return stmt
		default:
			continue
		}
		stmt.operation = token
		for j := i + 1; j < len(tokens)-1; j++ {
			if strings.EqualFold(tokens[j], tableAfter) {
				stmt.table = tableName(tokens[j+1])
				break
			}
		}
		return stmt
	}
	return stmt
}

func tableName(token string) string {
	return strings.ToLower(strings.Trim(token, "`\"();"))
}

func zapLevel(level gormlogger.LogLevel) zapcore.Level {
	switch level {
	case gormlogger.Error:
		return zap.ErrorLevel
	case gormlogger.Warn:
		return zap.WarnLevel
	default:
		return zap.InfoLevel
	}
}

var _ gormlogger.Interface = (*GormLogger)(nil)
