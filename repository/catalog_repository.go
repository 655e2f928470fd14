package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mandic19/Shop-Backup/models"
)

// StagingSuffix is appended to a live table name to form its staging twin.
const StagingSuffix = "_temp"

// CatalogRepository is the storage collaborator for backup runs. Staging
// tables are invisible to readers until SwapTables commits; live tables are
// only ever mutated by the swap.
type CatalogRepository interface {
	EnsureLiveTables(ctx context.Context) error
	DropStagingTables(ctx context.Context) error
	CreateStagingTables(ctx context.Context) error
	InsertProducts(ctx context.Context, rows []models.Product) error
	InsertProductImages(ctx context.Context, rows []models.ProductImage) error
	InsertVariants(ctx context.Context, rows []models.Variant) error
	InsertVariantImages(ctx context.Context, rows []models.VariantImage) error
	LookupProductIDs(ctx context.Context, productUUIDs []string) (map[string]uuid.UUID, error)
	LookupVariantIDs(ctx context.Context, variantUUIDs []string) (map[string]uuid.UUID, error)
	SwapTables(ctx context.Context, snapshotSuffix string) error
	DropSnapshotTables(ctx context.Context, snapshotSuffix string) error
}

// StagingTableName returns the staging twin of a live table name.
func StagingTableName(table string) string {
	return table + StagingSuffix
}

// SnapshotTableName returns the transient snapshot name used during a swap.
func SnapshotTableName(table, suffix string) string {
	return fmt.Sprintf("%s_snap_%s", table, suffix)
}

// GormCatalogRepository implements CatalogRepository on Postgres through GORM.
type GormCatalogRepository struct {
	db        *gorm.DB
	batchSize int
	logger    *zap.Logger
}

// NewGormCatalogRepository creates a repository. batchSize bounds the number
// of rows per insert statement (default 1000).
func NewGormCatalogRepository(db *gorm.DB, batchSize int, logger *zap.Logger) *GormCatalogRepository {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &GormCatalogRepository{db: db, batchSize: batchSize, logger: logger}
}

// EnsureLiveTables bootstraps the live schema from the shared table specs.
func (r *GormCatalogRepository) EnsureLiveTables(ctx context.Context) error {
	for _, spec := range models.CatalogTables {
		sql := createTableSQL(spec, func(t string) string { return t }, true)
		if err := r.db.WithContext(ctx).Exec(sql).Error; err != nil {
			return fmt.Errorf("create live table %s: %w", spec.Name, err)
		}
	}
	return nil
}

// DropStagingTables removes any staging tables, children before parents.
// Safe to call when none exist, which makes re-runs after a crash idempotent.
func (r *GormCatalogRepository) DropStagingTables(ctx context.Context) error {
	r.logger.Info("dropping staging tables")
	for i := len(models.CatalogTables) - 1; i >= 0; i-- {
		name := StagingTableName(models.CatalogTables[i].Name)
		if err := r.db.WithContext(ctx).Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %s`, name)).Error; err != nil {
			return fmt.Errorf("drop staging table %s: %w", name, err)
		}
	}
	return nil
}

// CreateStagingTables creates one staging table per entity from the same
// specs as the live schema, with foreign keys pointed at sibling staging
// tables so referential integrity holds during staging itself.
func (r *GormCatalogRepository) CreateStagingTables(ctx context.Context) error {
	r.logger.Info("creating staging tables")
	for _, spec := range models.CatalogTables {
		sql := createTableSQL(spec, StagingTableName, false)
		if err := r.db.WithContext(ctx).Exec(sql).Error; err != nil {
			return fmt.Errorf("create staging table %s: %w", StagingTableName(spec.Name), err)
		}
	}
	return nil
}

func (r *GormCatalogRepository) InsertProducts(ctx context.Context, rows []models.Product) error {
	values := make([][]interface{}, 0, len(rows))
	for _, p := range rows {
		values = append(values, []interface{}{p.ID, p.ProductUUID, p.Name, p.ProductHandle, p.ProductPrice, p.CreatedAt, p.UpdatedAt})
	}
	return r.insertChunked(ctx, StagingTableName(models.TableProducts),
		[]string{"id", "product_uuid", "name", "product_handle", "product_price", "created_at", "updated_at"}, values)
}

func (r *GormCatalogRepository) InsertProductImages(ctx context.Context, rows []models.ProductImage) error {
	values := make([][]interface{}, 0, len(rows))
	for _, img := range rows {
		values = append(values, []interface{}{img.ID, img.ProductID, img.ProductUUID, img.URL, img.CreatedAt, img.UpdatedAt})
	}
	return r.insertChunked(ctx, StagingTableName(models.TableProductImages),
		[]string{"id", "product_id", "product_uuid", "url", "created_at", "updated_at"}, values)
}

func (r *GormCatalogRepository) InsertVariants(ctx context.Context, rows []models.Variant) error {
	values := make([][]interface{}, 0, len(rows))
	for _, v := range rows {
		values = append(values, []interface{}{v.ID, v.ProductID, v.ProductUUID, v.VariantUUID, v.VariantPrice, v.VariantHandle, v.CreatedAt, v.UpdatedAt})
	}
	return r.insertChunked(ctx, StagingTableName(models.TableVariants),
		[]string{"id", "product_id", "product_uuid", "variant_uuid", "variant_price", "variant_handle", "created_at", "updated_at"}, values)
}

func (r *GormCatalogRepository) InsertVariantImages(ctx context.Context, rows []models.VariantImage) error {
	values := make([][]interface{}, 0, len(rows))
	for _, img := range rows {
		values = append(values, []interface{}{img.ID, img.VariantID, img.VariantUUID, img.URL, img.CreatedAt, img.UpdatedAt})
	}
	return r.insertChunked(ctx, StagingTableName(models.TableVariantImages),
		[]string{"id", "variant_id", "variant_uuid", "url", "created_at", "updated_at"}, values)
}

// insertChunked bulk-inserts rows in chunks of at most batchSize rows per
// statement to bound statement payload size.
func (r *GormCatalogRepository) insertChunked(ctx context.Context, table string, columns []string, rows [][]interface{}) error {
	for start := 0; start < len(rows); start += r.batchSize {
		end := start + r.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		placeholders := make([]string, 0, len(chunk))
		args := make([]interface{}, 0, len(chunk)*len(columns))
		rowPlaceholder := "(" + strings.TrimRight(strings.Repeat("?,", len(columns)), ",") + ")"
		for _, row := range chunk {
			placeholders = append(placeholders, rowPlaceholder)
			args = append(args, row...)
		}

		sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
			table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
		if err := r.db.WithContext(ctx).Exec(sql, args...).Error; err != nil {
			return fmt.Errorf("insert into %s: %w", table, err)
		}
	}
	return nil
}

// LookupProductIDs resolves external product ids against the staging products
// table with a single set-membership query.
func (r *GormCatalogRepository) LookupProductIDs(ctx context.Context, productUUIDs []string) (map[string]uuid.UUID, error) {
	return r.lookupIDs(ctx, StagingTableName(models.TableProducts), "product_uuid", productUUIDs)
}

// LookupVariantIDs resolves external variant ids against the staging variants
// table with a single set-membership query.
func (r *GormCatalogRepository) LookupVariantIDs(ctx context.Context, variantUUIDs []string) (map[string]uuid.UUID, error) {
	return r.lookupIDs(ctx, StagingTableName(models.TableVariants), "variant_uuid", variantUUIDs)
}

func (r *GormCatalogRepository) lookupIDs(ctx context.Context, table, externalCol string, externalIDs []string) (map[string]uuid.UUID, error) {
	found := make(map[string]uuid.UUID, len(externalIDs))
	if len(externalIDs) == 0 {
		return found, nil
	}

	var rows []struct {
		ID         uuid.UUID `gorm:"column:id"`
		ExternalID string    `gorm:"column:external_id"`
	}
	sql := fmt.Sprintf("SELECT id, %s AS external_id FROM %s WHERE %s IN ?", externalCol, table, externalCol)
	if err := r.db.WithContext(ctx).Raw(sql, externalIDs).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("lookup %s in %s: %w", externalCol, table, err)
	}
	for _, row := range rows {
		found[row.ExternalID] = row.ID
	}
	return found, nil
}

// SwapTables performs the cutover as one transaction: every live table is
// renamed to its snapshot name and its staging twin renamed to the live name.
// Either all renames commit or none do; no reader ever observes a mix of
// generations or a missing table.
func (r *GormCatalogRepository) SwapTables(ctx context.Context, snapshotSuffix string) error {
	r.logger.Info("swapping staging tables with live tables")
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, spec := range models.CatalogTables {
			snap := SnapshotTableName(spec.Name, snapshotSuffix)
			if err := tx.Exec(fmt.Sprintf(`ALTER TABLE %s RENAME TO %s`, spec.Name, snap)).Error; err != nil {
				return fmt.Errorf("rename %s to %s: %w", spec.Name, snap, err)
			}
			if err := tx.Exec(fmt.Sprintf(`ALTER TABLE %s RENAME TO %s`, StagingTableName(spec.Name), spec.Name)).Error; err != nil {
				return fmt.Errorf("rename %s to %s: %w", StagingTableName(spec.Name), spec.Name, err)
			}
		}
		return nil
	})
}

// DropSnapshotTables removes the renamed-aside tables, children before parents.
func (r *GormCatalogRepository) DropSnapshotTables(ctx context.Context, snapshotSuffix string) error {
	r.logger.Info("dropping snapshot tables")
	for i := len(models.CatalogTables) - 1; i >= 0; i-- {
		name := SnapshotTableName(models.CatalogTables[i].Name, snapshotSuffix)
		if err := r.db.WithContext(ctx).Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %s`, name)).Error; err != nil {
			return fmt.Errorf("drop snapshot table %s: %w", name, err)
		}
	}
	return nil
}

// createTableSQL renders a TableSpec into a CREATE TABLE statement. nameFor
// maps a live table name to the name actually created and to the name each
// foreign key references, so staging tables reference their staging siblings.
func createTableSQL(spec models.TableSpec, nameFor func(string) string, ifNotExists bool) string {
	table := nameFor(spec.Name)

	defs := make([]string, 0, len(spec.Columns)+len(spec.ForeignKeys))
	for _, col := range spec.Columns {
		def := col.Name + " " + col.Type
		if col.Primary {
			def += " PRIMARY KEY"
		}
		if col.Unique {
			def += " UNIQUE"
		}
		if col.NotNull && !col.Primary {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}
	for _, fk := range spec.ForeignKeys {
		defs = append(defs, fmt.Sprintf(
			"CONSTRAINT fk_%s_%s FOREIGN KEY (%s) REFERENCES %s (id) ON DELETE CASCADE",
			table, fk.Column, fk.Column, nameFor(fk.References)))
	}

	clause := "CREATE TABLE"
	if ifNotExists {
		clause = "CREATE TABLE IF NOT EXISTS"
	}
	return fmt.Sprintf("%s %s (%s)", clause, table, strings.Join(defs, ", "))
}
