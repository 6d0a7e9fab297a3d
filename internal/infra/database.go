package infra

import (
	"fmt"

	"otfinanzas/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies the idempotent SQL patches that
// GORM cannot express (partial indexes, CHECK constraints).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

// RunMigrations creates / updates the schema. Also used by integration tests.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.EscalaComision{},
		&model.ReglaComision{},
		&model.ProcesadorPago{},
		&model.ConfiguracionComisionesInternas{},
		&model.ReglaRendimiento{},
		&model.Liquidacion{},
		&model.MovimientoTransaccion{},
		&model.PeriodoConsolidado{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
// Each statement uses IF NOT EXISTS / existence guards so re-running on an
// already-patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// Partial index for saldo/resumen queries, which always exclude
		// reversed movements.
		`DO $$ BEGIN
		  IF EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'movimientos_transaccion')
		    AND NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_movimientos_activos_periodo') THEN
		    CREATE INDEX idx_movimientos_activos_periodo
		        ON movimientos_transaccion (anio, mes)
		        WHERE estado = 'ACTIVO';
		  END IF;
		END $$`,
		// Montos nunca negativos en el libro; el signo lo lleva el tipo.
		`DO $$ BEGIN
		  IF EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'movimientos_transaccion')
		    AND NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_movimientos_monto_positivo') THEN
		    ALTER TABLE movimientos_transaccion
		      ADD CONSTRAINT chk_movimientos_monto_positivo CHECK (monto_usd > 0);
		  END IF;
		END $$`,
		// A lo sumo una escala activa a la vez.
		`DO $$ BEGIN
		  IF EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'escalas_comision')
		    AND NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_escala_activa_unica') THEN
		    CREATE UNIQUE INDEX idx_escala_activa_unica
		        ON escalas_comision ((1))
		        WHERE activa = true;
		  END IF;
		END $$`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
