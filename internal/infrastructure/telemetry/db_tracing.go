package telemetry

import (
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RegisterDBTracing attaches the otelgorm plugin plus span-enrichment
// callbacks to a GORM connection. Query variables are excluded from
// spans since several tables hold taxpayer identifiers.
func RegisterDBTracing(db *gorm.DB, dbName string, log *zap.Logger) error {
	plugin := otelgorm.NewPlugin(
		otelgorm.WithDBName(dbName),
		otelgorm.WithoutQueryVariables(),
	)
	if err := db.Use(plugin); err != nil {
		return err
	}

	for _, reg := range []struct {
		name     string
		register func(string, func(*gorm.DB)) error
	}{
		{"span_enrich:after_query", db.Callback().Query().After("gorm:query").Register},
		{"span_enrich:after_create", db.Callback().Create().After("gorm:create").Register},
		{"span_enrich:after_update", db.Callback().Update().After("gorm:update").Register},
		{"span_enrich:after_delete", db.Callback().Delete().After("gorm:delete").Register},
		{"span_enrich:after_raw", db.Callback().Raw().After("gorm:raw").Register},
		{"span_enrich:after_row", db.Callback().Row().After("gorm:row").Register},
	} {
		if err := reg.register(reg.name, enrichSpan); err != nil {
			return err
		}
	}

	log.Info("database tracing enabled", zap.String("db_name", dbName))
	return nil
}

// enrichSpan adds row counts and error status to the active otelgorm span.
func enrichSpan(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}
}
