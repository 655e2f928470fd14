package models

// Raw record shapes returned by the shop API. Timestamps stay as strings here;
// mapping normalizes them into time.Time and rejects malformed values.

// APIImage is the image object embedded on products and variant images.
type APIImage struct {
	URL       string `json:"url"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// APIProduct is one record from the products endpoint.
type APIProduct struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Price     float64   `json:"price"`
	Handle    string    `json:"handle"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
	Image     *APIImage `json:"image"`
}

// APIVariant is one record from the variants endpoint. ProductID is the
// external product identifier, not a local row id.
type APIVariant struct {
	ID        string  `json:"id"`
	ProductID string  `json:"product_id"`
	Price     float64 `json:"price"`
	Handle    string  `json:"handle"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

// APIVariantImage is one record from the variant-images endpoint.
type APIVariantImage struct {
	ID        string   `json:"id"`
	VariantID string   `json:"variant_id"`
	Image     APIImage `json:"image"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}
