package infra

import (
	"fmt"

	"plantaops/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies the idempotent SQL patches that
// AutoMigrate cannot express (sequences, CHECK constraints, partial indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true, // map SQLSTATE 23505 to gorm.ErrDuplicatedKey
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

// RunMigrations creates / updates the schema. Also used by integration tests
// against a throwaway container.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Usuario{},
		&model.Categoria{},
		&model.Unidad{},
		&model.Lote{},
		&model.MovimientoLote{},
		&model.Partida{},
		&model.PartidaCampo{},
		&model.ConsumoInsumo{},
		&model.ProductoElaborado{},
		&model.ProductoTerminado{},
		&model.Notificacion{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot produce. Each
// statement guards itself with an existence check, so re-running on an
// already-patched schema is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// secuencia de numeración de partidas: se consume con nextval()
		// dentro de la transacción de creación
		{"partidas numero sequence",
			`CREATE SEQUENCE IF NOT EXISTS partidas_numero_seq START WITH 1`},

		// la base rechaza cualquier descuento que deje el disponible negativo,
		// aun si un bug de aplicación saltea el UPDATE condicional
		{"lotes non-negative available check", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_lotes_disponible_no_negativo') THEN
    ALTER TABLE lotes ADD CONSTRAINT chk_lotes_disponible_no_negativo
        CHECK (cantidad_disponible >= 0);
  END IF;
END $$`},

		// índice parcial para la consulta del cron de reintentos
		{"notificaciones pending retry partial index", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_notificaciones_pending_retry') THEN
    CREATE INDEX idx_notificaciones_pending_retry
        ON notificaciones (next_retry_at)
        WHERE estado = 'pendiente' AND next_retry_at IS NOT NULL;
  END IF;
END $$`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
