package models

import (
	"time"

	"github.com/google/uuid"
)

// Table names for the live catalog tables, in hierarchical order
// (parent before child). Drops must walk this list in reverse.
const (
	TableProducts      = "products"
	TableProductImages = "product_images"
	TableVariants      = "variants"
	TableVariantImages = "variant_images"
)

// Product is a catalog product row. The ID is generated locally per run;
// ProductUUID is the source API's durable identifier.
type Product struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProductUUID   string    `gorm:"column:product_uuid;type:uuid;uniqueIndex" json:"product_uuid"`
	Name          string    `gorm:"column:name;type:varchar(255);not null" json:"name"`
	ProductHandle string    `gorm:"column:product_handle;type:varchar(255);uniqueIndex" json:"product_handle"`
	ProductPrice  float64   `gorm:"column:product_price;type:numeric(10,2)" json:"product_price"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// ProductImage is the optional image attached to a product (at most one).
type ProductImage struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProductID   uuid.UUID `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	ProductUUID string    `gorm:"column:product_uuid;type:uuid" json:"product_uuid"`
	URL         string    `gorm:"column:url;type:varchar(1024)" json:"url"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// Variant belongs to a product. ProductID is the locally generated parent id,
// resolved from ProductUUID against rows staged earlier in the same run.
type Variant struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProductID     uuid.UUID `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	ProductUUID   string    `gorm:"column:product_uuid;type:uuid;index" json:"product_uuid"`
	VariantUUID   string    `gorm:"column:variant_uuid;type:uuid;uniqueIndex" json:"variant_uuid"`
	VariantPrice  float64   `gorm:"column:variant_price;type:numeric(10,2)" json:"variant_price"`
	VariantHandle string    `gorm:"column:variant_handle;type:varchar(255);uniqueIndex" json:"variant_handle"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// VariantImage belongs to a variant, keyed the same way variants key to products.
type VariantImage struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	VariantID   uuid.UUID `gorm:"column:variant_id;type:uuid;not null" json:"variant_id"`
	VariantUUID string    `gorm:"column:variant_uuid;type:uuid" json:"variant_uuid"`
	URL         string    `gorm:"column:url;type:varchar(1024)" json:"url"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`
}
