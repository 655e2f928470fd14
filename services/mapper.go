package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mandic19/Shop-Backup/models"
)

// MissingParentError reports a child record whose parent external id was never
// staged. This aborts the run: a referential gap in the source must not be
// silently dropped from a backup.
type MissingParentError struct {
	ParentEntity string
	ExternalID   string
}

func (e *MissingParentError) Error() string {
	return fmt.Sprintf("%s with external id %s is missing", e.ParentEntity, e.ExternalID)
}

// ParentLookup resolves a batch of external parent ids to the local ids staged
// earlier in the same run. One call per page, never one per record.
type ParentLookup func(ctx context.Context, externalIDs []string) (map[string]uuid.UUID, error)

// Source timestamps are normalized by parsing into time.Time; the storage
// layer renders them in its canonical datetime format.
var recordTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func parseRecordTime(raw string) (time.Time, error) {
	for _, layout := range recordTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

func newLocalID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// MapProducts transforms one page of raw product records into product rows
// plus image rows for the products that embed one. A malformed record fails
// the whole page.
func MapProducts(records []json.RawMessage) ([]models.Product, []models.ProductImage, error) {
	products := make([]models.Product, 0, len(records))
	var images []models.ProductImage

	for _, raw := range records {
		var rec models.APIProduct
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, nil, fmt.Errorf("decode product record: %w", err)
		}
		createdAt, err := parseRecordTime(rec.CreatedAt)
		if err != nil {
			return nil, nil, fmt.Errorf("product %s: %w", rec.ID, err)
		}
		updatedAt, err := parseRecordTime(rec.UpdatedAt)
		if err != nil {
			return nil, nil, fmt.Errorf("product %s: %w", rec.ID, err)
		}

		localID := newLocalID()
		products = append(products, models.Product{
			ID:            localID,
			ProductUUID:   rec.ID,
			Name:          rec.Title,
			ProductHandle: rec.Handle,
			ProductPrice:  rec.Price,
			CreatedAt:     createdAt,
			UpdatedAt:     updatedAt,
		})

		if rec.Image == nil || rec.Image.URL == "" {
			continue
		}
		imgCreatedAt, err := parseRecordTime(rec.Image.CreatedAt)
		if err != nil {
			return nil, nil, fmt.Errorf("product %s image: %w", rec.ID, err)
		}
		imgUpdatedAt, err := parseRecordTime(rec.Image.UpdatedAt)
		if err != nil {
			return nil, nil, fmt.Errorf("product %s image: %w", rec.ID, err)
		}
		images = append(images, models.ProductImage{
			ID:          newLocalID(),
			ProductID:   localID,
			ProductUUID: rec.ID,
			URL:         rec.Image.URL,
			CreatedAt:   imgCreatedAt,
			UpdatedAt:   imgUpdatedAt,
		})
	}
	return products, images, nil
}

// MapVariants transforms one page of raw variant records, resolving each
// record's external product id to the locally staged product row.
func MapVariants(ctx context.Context, records []json.RawMessage, lookup ParentLookup) ([]models.Variant, error) {
	recs := make([]models.APIVariant, 0, len(records))
	for _, raw := range records {
		var rec models.APIVariant
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode variant record: %w", err)
		}
		recs = append(recs, rec)
	}

	parentIDs := make([]string, 0, len(recs))
	for _, rec := range recs {
		parentIDs = append(parentIDs, rec.ProductID)
	}
	parents, err := lookup(ctx, dedupe(parentIDs))
	if err != nil {
		return nil, err
	}

	variants := make([]models.Variant, 0, len(recs))
	for _, rec := range recs {
		productID, ok := parents[rec.ProductID]
		if !ok {
			return nil, &MissingParentError{ParentEntity: "product", ExternalID: rec.ProductID}
		}
		createdAt, err := parseRecordTime(rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("variant %s: %w", rec.ID, err)
		}
		updatedAt, err := parseRecordTime(rec.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("variant %s: %w", rec.ID, err)
		}
		variants = append(variants, models.Variant{
			ID:            newLocalID(),
			ProductID:     productID,
			ProductUUID:   rec.ProductID,
			VariantUUID:   rec.ID,
			VariantPrice:  rec.Price,
			VariantHandle: rec.Handle,
			CreatedAt:     createdAt,
			UpdatedAt:     updatedAt,
		})
	}
	return variants, nil
}

// MapVariantImages is symmetric to MapVariants, keyed on variant external id.
func MapVariantImages(ctx context.Context, records []json.RawMessage, lookup ParentLookup) ([]models.VariantImage, error) {
	recs := make([]models.APIVariantImage, 0, len(records))
	for _, raw := range records {
		var rec models.APIVariantImage
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode variant image record: %w", err)
		}
		recs = append(recs, rec)
	}

	parentIDs := make([]string, 0, len(recs))
	for _, rec := range recs {
		parentIDs = append(parentIDs, rec.VariantID)
	}
	parents, err := lookup(ctx, dedupe(parentIDs))
	if err != nil {
		return nil, err
	}

	images := make([]models.VariantImage, 0, len(recs))
	for _, rec := range recs {
		variantID, ok := parents[rec.VariantID]
		if !ok {
			return nil, &MissingParentError{ParentEntity: "variant", ExternalID: rec.VariantID}
		}
		createdAt, err := parseRecordTime(rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("variant image %s: %w", rec.ID, err)
		}
		updatedAt, err := parseRecordTime(rec.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("variant image %s: %w", rec.ID, err)
		}
		images = append(images, models.VariantImage{
			ID:          newLocalID(),
			VariantID:   variantID,
			VariantUUID: rec.VariantID,
			URL:         rec.Image.URL,
			CreatedAt:   createdAt,
			UpdatedAt:   updatedAt,
		})
	}
	return images, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
