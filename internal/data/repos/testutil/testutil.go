package testutil

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/edgeslab/edges-backend/internal/data/db"
	"github.com/edgeslab/edges-backend/internal/domain/evaluation"
	"github.com/edgeslab/edges-backend/internal/platform/logger"
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logg, err := logger.New("test")
	if err != nil {
		tb.Fatalf("failed to init logger: %v", err)
	}
	return logg
}

// DB returns a migrated database private to the test. TEST_POSTGRES_DSN
// selects a real postgres; otherwise an in-memory sqlite is used.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	cfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
	}

	var (
		conn *gorm.DB
		err  error
	)
	if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
		conn, err = gorm.Open(postgres.Open(dsn), cfg)
	} else {
		name := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
		conn, err = gorm.Open(sqlite.Open(name), cfg)
	}
	if err != nil {
		tb.Fatalf("open test db: %v", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	if os.Getenv("TEST_POSTGRES_DSN") == "" {
		// one connection keeps the in-memory database alive and serializes writers
		sqlDB.SetMaxOpenConns(1)
	}
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrateAll(conn); err != nil {
		tb.Fatalf("migrate test db: %v", err)
	}
	if os.Getenv("TEST_POSTGRES_DSN") != "" {
		truncate(tb, conn)
	}
	return conn
}

func truncate(tb testing.TB, conn *gorm.DB) {
	tb.Helper()
	for _, table := range []string{"evaluations", "subscriptions", "billing_events"} {
		if err := conn.Exec("DELETE FROM " + table).Error; err != nil {
			tb.Fatalf("truncate %s: %v", table, err)
		}
	}
}

func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}

// NewEvaluation builds an unsaved row with mid-range scores.
func NewEvaluation(userID uuid.UUID, name, brand string) *evaluation.Evaluation {
	return &evaluation.Evaluation{
		UserID:       userID,
		ConceptName:  name,
		Entertaining: 8,
		Daring:       6,
		Gripping:     7,
		Experiential: 9,
		Subversive:   5,
		Color:        "#3B82F6",
		Source:       string(evaluation.SourceManual),
		BrandName:    brand,
	}
}
