package models

// ColumnSpec describes a single column of a catalog table.
type ColumnSpec struct {
	Name    string
	Type    string // Postgres column type
	Primary bool
	Unique  bool
	NotNull bool
}

// ForeignKeySpec declares a foreign key from Column to the id column of the
// References table. References names the live table; callers building staging
// DDL rewrite it to the sibling staging name so integrity is enforced during
// staging itself.
type ForeignKeySpec struct {
	Column     string
	References string
}

// TableSpec is a declarative table definition consumed by both the
// staging-table creator and the live-schema bootstrapper.
type TableSpec struct {
	Name        string
	Columns     []ColumnSpec
	ForeignKeys []ForeignKeySpec
}

func entityColumns() []ColumnSpec {
	return []ColumnSpec{
		{Name: "id", Type: "uuid", Primary: true},
		{Name: "created_at", Type: "timestamp", NotNull: true},
		{Name: "updated_at", Type: "timestamp", NotNull: true},
	}
}

func imageColumns(entity string) []ColumnSpec {
	cols := entityColumns()
	return append(cols,
		ColumnSpec{Name: entity + "_id", Type: "uuid", NotNull: true},
		ColumnSpec{Name: entity + "_uuid", Type: "uuid", NotNull: true},
		ColumnSpec{Name: "url", Type: "varchar(1024)", NotNull: true},
	)
}

// CatalogTables lists every catalog table in hierarchical order
// (parent before child). Cleanup and drops walk it in reverse.
var CatalogTables = []TableSpec{
	{
		Name: TableProducts,
		Columns: append(entityColumns(),
			ColumnSpec{Name: "product_uuid", Type: "uuid", Unique: true, NotNull: true},
			ColumnSpec{Name: "name", Type: "varchar(255)", NotNull: true},
			ColumnSpec{Name: "product_handle", Type: "varchar(255)", Unique: true, NotNull: true},
			ColumnSpec{Name: "product_price", Type: "numeric(10,2)", NotNull: true},
		),
	},
	{
		Name:    TableProductImages,
		Columns: imageColumns("product"),
		ForeignKeys: []ForeignKeySpec{
			{Column: "product_id", References: TableProducts},
		},
	},
	{
		Name: TableVariants,
		Columns: append(entityColumns(),
			ColumnSpec{Name: "product_id", Type: "uuid", NotNull: true},
			ColumnSpec{Name: "product_uuid", Type: "uuid", NotNull: true},
			ColumnSpec{Name: "variant_uuid", Type: "uuid", Unique: true, NotNull: true},
			ColumnSpec{Name: "variant_price", Type: "numeric(10,2)", NotNull: true},
			ColumnSpec{Name: "variant_handle", Type: "varchar(255)", Unique: true, NotNull: true},
		),
		ForeignKeys: []ForeignKeySpec{
			{Column: "product_id", References: TableProducts},
		},
	},
	{
		Name:    TableVariantImages,
		Columns: imageColumns("variant"),
		ForeignKeys: []ForeignKeySpec{
			{Column: "variant_id", References: TableVariants},
		},
	},
}
