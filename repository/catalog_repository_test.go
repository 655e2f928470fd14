package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/mandic19/Shop-Backup/models"
	"github.com/mandic19/Shop-Backup/repository"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	assert.NoError(t, err)
	return gormDB, mock
}

func newRepo(t *testing.T, batchSize int) (*repository.GormCatalogRepository, sqlmock.Sqlmock) {
	t.Helper()
	gormDB, mock := setupMockDB(t)
	return repository.NewGormCatalogRepository(gormDB, batchSize, zap.NewNop()), mock
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "products_temp", repository.StagingTableName("products"))
	assert.Equal(t, "variants_snap_20250508_211850", repository.SnapshotTableName("variants", "20250508_211850"))
}

func TestCreateStagingTables_ParentFirstWithStagingFKs(t *testing.T) {
	repo, mock := newRepo(t, 0)

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE products_temp`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`REFERENCES products_temp (id) ON DELETE CASCADE`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE variants_temp`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`REFERENCES variants_temp (id) ON DELETE CASCADE`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.CreateStagingTables(context.Background())
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDropStagingTables_ChildrenFirst(t *testing.T) {
	repo, mock := newRepo(t, 0)

	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS variant_images_temp`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS variants_temp`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS product_images_temp`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS products_temp`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DropStagingTables(context.Background())
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureLiveTables_UsesIfNotExists(t *testing.T) {
	repo, mock := newRepo(t, 0)

	for range models.CatalogTables {
		mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}

	err := repo.EnsureLiveTables(context.Background())
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func stagedProduct(external string) models.Product {
	now := time.Now()
	return models.Product{
		ID:            uuid.New(),
		ProductUUID:   external,
		Name:          "Product " + external,
		ProductHandle: "product-" + external,
		ProductPrice:  19.99,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestInsertProducts_ChunksByBatchSize(t *testing.T) {
	repo, mock := newRepo(t, 2)

	rows := []models.Product{stagedProduct("p1"), stagedProduct("p2"), stagedProduct("p3")}

	// Three rows with batch size two means one two-row statement and one
	// single-row statement.
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO products_temp (id, product_uuid, name, product_handle, product_price, created_at, updated_at) VALUES ($1,$2,$3,$4,$5,$6,$7), ($8,$9,$10,$11,$12,$13,$14)`)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO products_temp (id, product_uuid, name, product_handle, product_price, created_at, updated_at) VALUES ($1,$2,$3,$4,$5,$6,$7)`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.InsertProducts(context.Background(), rows)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertProducts_EmptySliceIssuesNoStatement(t *testing.T) {
	repo, mock := newRepo(t, 0)

	err := repo.InsertProducts(context.Background(), nil)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertVariants_TargetsStagingTable(t *testing.T) {
	repo, mock := newRepo(t, 0)

	now := time.Now()
	rows := []models.Variant{{
		ID:            uuid.New(),
		ProductID:     uuid.New(),
		ProductUUID:   "p1",
		VariantUUID:   "v1",
		VariantPrice:  9.99,
		VariantHandle: "variant-v1",
		CreatedAt:     now,
		UpdatedAt:     now,
	}}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO variants_temp (id, product_id, product_uuid, variant_uuid, variant_price, variant_handle, created_at, updated_at)`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.InsertVariants(context.Background(), rows)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLookupProductIDs_SingleSetQuery(t *testing.T) {
	repo, mock := newRepo(t, 0)

	p1 := uuid.New()
	p2 := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, product_uuid AS external_id FROM products_temp WHERE product_uuid IN ($1,$2)`)).
		WithArgs("p1", "p2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "external_id"}).
			AddRow(p1, "p1").
			AddRow(p2, "p2"))

	found, err := repo.LookupProductIDs(context.Background(), []string{"p1", "p2"})
	assert.NoError(t, err)
	assert.Equal(t, map[string]uuid.UUID{"p1": p1, "p2": p2}, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLookupProductIDs_EmptyInputSkipsQuery(t *testing.T) {
	repo, mock := newRepo(t, 0)

	found, err := repo.LookupProductIDs(context.Background(), nil)
	assert.NoError(t, err)
	assert.Empty(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLookupVariantIDs_OmitsUnknownIDs(t *testing.T) {
	repo, mock := newRepo(t, 0)

	v1 := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, variant_uuid AS external_id FROM variants_temp WHERE variant_uuid IN ($1,$2)`)).
		WithArgs("v1", "v9").
		WillReturnRows(sqlmock.NewRows([]string{"id", "external_id"}).
			AddRow(v1, "v1"))

	found, err := repo.LookupVariantIDs(context.Background(), []string{"v1", "v9"})
	assert.NoError(t, err)
	assert.Equal(t, map[string]uuid.UUID{"v1": v1}, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSwapTables_RenamesEverythingInOneTransaction(t *testing.T) {
	repo, mock := newRepo(t, 0)
	suffix := "20250508_211850"

	mock.ExpectBegin()
	for _, table := range []string{"products", "product_images", "variants", "variant_images"} {
		mock.ExpectExec(regexp.QuoteMeta(`ALTER TABLE ` + table + ` RENAME TO ` + table + `_snap_` + suffix)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta(`ALTER TABLE ` + table + `_temp RENAME TO ` + table)).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectCommit()

	err := repo.SwapTables(context.Background(), suffix)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSwapTables_RenameFailureRollsBack(t *testing.T) {
	repo, mock := newRepo(t, 0)
	boom := errors.New("relation does not exist")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`ALTER TABLE products RENAME TO`)).
		WillReturnError(boom)
	mock.ExpectRollback()

	err := repo.SwapTables(context.Background(), "20250508_211850")
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDropSnapshotTables_ChildrenFirst(t *testing.T) {
	repo, mock := newRepo(t, 0)
	suffix := "20250508_211850"

	for _, table := range []string{"variant_images", "variants", "product_images", "products"} {
		mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS ` + table + `_snap_` + suffix)).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}

	err := repo.DropSnapshotTables(context.Background(), suffix)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
