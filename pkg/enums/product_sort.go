package enums

// ProductSort orders catalog search results.
type ProductSort string

const (
	ProductSortNewest  ProductSort = "newest"
	ProductSortLowest  ProductSort = "lowest"
	ProductSortHighest ProductSort = "highest"
	ProductSortRating  ProductSort = "rating"
)

// ParseProductSort falls back to newest for unknown input.
func ParseProductSort(value string) ProductSort {
	switch ProductSort(value) {
	case ProductSortLowest, ProductSortHighest, ProductSortRating:
		return ProductSort(value)
	default:
		return ProductSortNewest
	}
}
