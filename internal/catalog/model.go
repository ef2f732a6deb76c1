// Package catalog talks to the product metadata service that backs the
// inventory listing.
package catalog

// ItemData is the structured metadata stored for each inventory item.
type ItemData struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Categories      []string `json:"categories"`
	ProductLocation string   `json:"productLocation"`
	InternalID      string   `json:"internalId"`
	AvailableTime   string   `json:"available_time"`
}

// Item is an inventory item as the metadata service stores it.
type Item struct {
	ID     string   `json:"id"`
	Images []string `json:"images,omitempty"`
	Data   ItemData `json:"structData"`
}

// ListedItem is the flattened entry the metadata service returns from a
// listing. The service collapses structData into top-level fields and
// exposes the first image as a thumbnail URL.
type ListedItem struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	CatalogNumber string   `json:"catalogNumber"`
	Description   string   `json:"description"`
	ImageURL      string   `json:"imageUrl"`
	ImageURLs     []string `json:"imageUrls"`
	Categories    []string `json:"categories"`
	AvailableTime string   `json:"available_time"`
}

// DefaultCategories is applied to every item written by the pipeline.
var DefaultCategories = []string{"Product", "Warehouse Inventory"}
