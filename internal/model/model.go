// Package model defines the catalog entities shared by all store engines.
package model

// Supplier is a vendor whose products appear in the catalog.
// Many products may reference one supplier.
type Supplier struct {
	ID          int64
	Name        string
	Description string
}

// ProductCategory groups products under a department label.
// Many products may reference one category.
type ProductCategory struct {
	ID          int64
	Name        string
	Description string
	Department  string
}

// Product is a catalog item. Price is in minor currency units (cents).
// Category and Supplier are resolved copies of the referenced records;
// the store engine that reads a product back is responsible for
// resolving them.
type Product struct {
	ID           int64
	Name         string
	Description  string
	Currency     string
	DefaultPrice int64
	Category     ProductCategory
	Supplier     Supplier
}
