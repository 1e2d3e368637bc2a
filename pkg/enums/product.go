package enums

import "slices"

// ProductCategory is the catalog grouping shown in the storefront filters.
type ProductCategory string

const (
	ProductCategoryUPSHome       ProductCategory = "UPS - Home"
	ProductCategoryUPSOffice     ProductCategory = "UPS - Office"
	ProductCategoryInverter      ProductCategory = "Inverter"
	ProductCategoryBatteryBackup ProductCategory = "Battery Backup"
	ProductCategoryAccessories   ProductCategory = "Accessories"
)

var productCategories = set[ProductCategory]{
	ProductCategoryUPSHome,
	ProductCategoryUPSOffice,
	ProductCategoryInverter,
	ProductCategoryBatteryBackup,
	ProductCategoryAccessories,
}

// ProductCategories returns the categories in display order.
func ProductCategories() []ProductCategory { return slices.Clone(productCategories) }

func (c ProductCategory) String() string { return string(c) }

func (c ProductCategory) IsValid() bool { return productCategories.has(c) }

// ParseProductCategory ignores case so query strings like "inverter" resolve.
func ParseProductCategory(value string) (ProductCategory, error) {
	return productCategories.parse("product category", value, true)
}
