package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hammamikhairi/pantrychef/internal/domain"
	"github.com/hammamikhairi/pantrychef/internal/logger"
)

// Compile-time interface check.
var _ domain.ItemStore = (*PostgresStore)(nil)

// storageItem mirrors the frontend's storage table.
type storageItem struct {
	ID        uint `gorm:"primaryKey"`
	Name      string
	Quantity  float64
	ExpiresAt *time.Time
	CreatedAt time.Time
}

func (storageItem) TableName() string { return "storage_items" }

type shoppingItem struct {
	ID        uint `gorm:"primaryKey"`
	Name      string
	Checked   bool
	CreatedAt time.Time
}

func (shoppingItem) TableName() string { return "shopping_items" }

// mealRow is a catalog recipe. PlannedDate NULL means explorable.
type mealRow struct {
	ID           string `gorm:"primaryKey"`
	Title        string
	CookTime     int
	Servings     int
	Ingredients  pq.StringArray `gorm:"type:text[]"`
	Instructions pq.StringArray `gorm:"type:text[]"`
	Image        string
	PlannedDate  *time.Time `gorm:"index"`
	CreatedAt    time.Time
}

func (mealRow) TableName() string { return "meals" }

func (m mealRow) toRecipe() domain.Recipe {
	return domain.Recipe{
		ID:           m.ID,
		Title:        m.Title,
		CookTime:     m.CookTime,
		Servings:     m.Servings,
		Ingredients:  append([]string{}, m.Ingredients...),
		Instructions: append([]string{}, m.Instructions...),
		Image:        m.Image,
	}
}

// PostgresStore reads the household tables through gorm.
type PostgresStore struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewPostgresStore connects to databaseURL, retrying until ctx ends or
// connectTimeout elapses, and migrates the tables it reads.
func NewPostgresStore(ctx context.Context, databaseURL string, connectTimeout time.Duration, log *logger.Logger) (*PostgresStore, error) {
	log.Info("postgres store: connecting")

	var db *gorm.DB
	var err error
	start := time.Now()
	for {
		db, err = gorm.Open(postgres.Open(databaseURL), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if err == nil {
			break
		}
		if time.Since(start) > connectTimeout {
			return nil, fmt.Errorf("could not connect to database after %s: %w", connectTimeout, err)
		}
		log.Warn("postgres store: connect failed, retrying: %v", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}

	if err := db.WithContext(ctx).AutoMigrate(&storageItem{}, &shoppingItem{}, &mealRow{}); err != nil {
		return nil, fmt.Errorf("migrating tables: %w", err)
	}
	return &PostgresStore{db: db, log: log}, nil
}

// NewPostgresStoreFromDB wraps an existing gorm handle.
func NewPostgresStoreFromDB(db *gorm.DB, log *logger.Logger) *PostgresStore {
	return &PostgresStore{db: db, log: log}
}

// PantryNames returns up to limit storage item names, oldest first.
func (s *PostgresStore) PantryNames(ctx context.Context, limit int) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).
		Model(&storageItem{}).
		Order("id").
		Limit(limitOrAll(limit)).
		Pluck("name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("loading storage items: %w", err)
	}
	return normalizeAll(names), nil
}

// ShoppingNames returns up to limit unchecked shopping list names.
func (s *PostgresStore) ShoppingNames(ctx context.Context, limit int) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).
		Model(&shoppingItem{}).
		Where("checked = ?", false).
		Order("id").
		Limit(limitOrAll(limit)).
		Pluck("name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("loading shopping items: %w", err)
	}
	return normalizeAll(names), nil
}

// ExplorableRecipes returns up to limit meals with no planned date.
func (s *PostgresStore) ExplorableRecipes(ctx context.Context, limit int) ([]domain.Recipe, error) {
	var rows []mealRow
	err := s.db.WithContext(ctx).
		Where("planned_date IS NULL").
		Order("created_at").
		Limit(limitOrAll(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("loading meals: %w", err)
	}

	out := make([]domain.Recipe, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toRecipe())
	}
	s.log.Debug("postgres store: %d explorable recipes (limit=%d)", len(out), limit)
	return out, nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// limitOrAll maps "no limit" to gorm's -1.
func limitOrAll(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func normalizeAll(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = normalizeName(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}
