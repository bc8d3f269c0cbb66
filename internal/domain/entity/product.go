package entity

import "github.com/shopspring/decimal"

// Money monto con su moneda tal como lo reporta el catálogo.
type Money struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode"`
}

// CatalogProduct proyección de solo lectura de un producto del catálogo remoto.
// URL se construye siempre a partir del handle; nunca proviene del modelo.
type CatalogProduct struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Handle      string           `json:"handle"`
	URL         string           `json:"url"`
	Vendor      string           `json:"vendor"`
	ProductType string           `json:"productType"`
	Variants    []CatalogVariant `json:"variants"`
}

// CatalogVariant unidad comprable de un producto (color, tamaño, aroma...).
// En la búsqueda ID es el identificador global opaco; para el carrito se usa
// el identificador numérico de VariantDetail.
type CatalogVariant struct {
	ID               string            `json:"id"`
	Title            string            `json:"title"`
	AvailableForSale bool              `json:"availableForSale"`
	Price            Money             `json:"price"`
	SelectedOptions  map[string]string `json:"selectedOptions"`
}

// ProductDetail proyección pública por handle con las columnas posicionales option1..option3.
type ProductDetail struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Handle      string          `json:"handle"`
	OptionNames []string        `json:"optionNames"`
	Variants    []VariantDetail `json:"variants"`
}

// VariantDetail variante tal como la expone el endpoint público del producto.
type VariantDetail struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	Available bool            `json:"available"`
	Option1   string          `json:"option1"`
	Option2   string          `json:"option2"`
	Option3   string          `json:"option3"`
	Price     decimal.Decimal `json:"price"`
}

// Options devuelve las tres columnas posicionales en orden.
func (v VariantDetail) Options() [3]string {
	return [3]string{v.Option1, v.Option2, v.Option3}
}

// VariantSelection resultado de la resolución de variante: el ID numérico como texto,
// listo para la llamada de carrito del navegador.
type VariantSelection struct {
	VariantID    string `json:"variantId"`
	VariantTitle string `json:"variantTitle"`
}
