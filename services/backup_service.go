package services

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/mandic19/Shop-Backup/client"
	"github.com/mandic19/Shop-Backup/repository"
)

// CatalogFetcher is the slice of the shop API the backup consumes.
// client.ShopAPI satisfies it.
type CatalogFetcher interface {
	Products(ctx context.Context, page, perPage int) (*client.Page, error)
	Variants(ctx context.Context, page, perPage int) (*client.Page, error)
	VariantImages(ctx context.Context, page, perPage int) (*client.Page, error)
}

// BackupService replicates the remote catalog into the local store as an
// all-or-nothing snapshot: stage off to the side, extract parent-before-child,
// swap atomically, clean up. Readers never observe a partial dataset.
type BackupService struct {
	repo     repository.CatalogRepository
	fetcher  CatalogFetcher
	pageSize int
	logger   *zap.Logger
}

// NewBackupService creates a BackupService. pageSize is the per_page value
// sent to the API (default 100).
func NewBackupService(repo repository.CatalogRepository, fetcher CatalogFetcher, pageSize int, logger *zap.Logger) *BackupService {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &BackupService{
		repo:     repo,
		fetcher:  fetcher,
		pageSize: pageSize,
		logger:   logger,
	}
}

// Run executes one full backup. On any failure before the swap commits the
// live tables are untouched and staging tables are dropped best-effort; the
// original failure is always the one returned.
func (s *BackupService) Run(ctx context.Context) error {
	start := time.Now()
	snapshotSuffix := start.Format("20060102_150405")
	s.logger.Info("starting shop backup")

	if err := s.execute(ctx, snapshotSuffix); err != nil {
		s.logger.Error("shop backup failed", zap.Error(err))
		// Cleanup runs on a fresh context so a cancelled run still removes
		// its staging tables.
		if cleanupErr := s.repo.DropStagingTables(context.Background()); cleanupErr != nil {
			s.logger.Error("failed to clean up staging tables after backup failure", zap.Error(cleanupErr))
		}
		return err
	}

	s.logger.Info("shop backup completed",
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

func (s *BackupService) execute(ctx context.Context, snapshotSuffix string) error {
	// Stale staging tables from a crashed run are dropped before re-staging.
	if err := s.repo.DropStagingTables(ctx); err != nil {
		return err
	}
	if err := s.repo.CreateStagingTables(ctx); err != nil {
		return err
	}

	if err := s.backupProducts(ctx); err != nil {
		return err
	}
	if err := s.backupVariants(ctx); err != nil {
		return err
	}
	if err := s.backupVariantImages(ctx); err != nil {
		return err
	}

	if err := s.repo.SwapTables(ctx, snapshotSuffix); err != nil {
		return err
	}
	return s.repo.DropSnapshotTables(ctx, snapshotSuffix)
}

func (s *BackupService) backupProducts(ctx context.Context) error {
	s.logger.Info("starting products backup")
	total, err := client.FetchAll(ctx, s.pageSize, s.fetcher.Products, func(records []json.RawMessage) error {
		products, images, err := MapProducts(records)
		if err != nil {
			return err
		}
		if err := s.repo.InsertProducts(ctx, products); err != nil {
			return err
		}
		return s.repo.InsertProductImages(ctx, images)
	})
	if err != nil {
		return err
	}
	s.logger.Info("completed products backup", zap.Int("total", total))
	return nil
}

func (s *BackupService) backupVariants(ctx context.Context) error {
	s.logger.Info("starting variants backup")
	total, err := client.FetchAll(ctx, s.pageSize, s.fetcher.Variants, func(records []json.RawMessage) error {
		variants, err := MapVariants(ctx, records, s.repo.LookupProductIDs)
		if err != nil {
			return err
		}
		return s.repo.InsertVariants(ctx, variants)
	})
	if err != nil {
		return err
	}
	s.logger.Info("completed variants backup", zap.Int("total", total))
	return nil
}

func (s *BackupService) backupVariantImages(ctx context.Context) error {
	s.logger.Info("starting variant images backup")
	total, err := client.FetchAll(ctx, s.pageSize, s.fetcher.VariantImages, func(records []json.RawMessage) error {
		images, err := MapVariantImages(ctx, records, s.repo.LookupVariantIDs)
		if err != nil {
			return err
		}
		return s.repo.InsertVariantImages(ctx, images)
	})
	if err != nil {
		return err
	}
	s.logger.Info("completed variant images backup", zap.Int("total", total))
	return nil
}
