package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/asistente-tienda-api/internal/domain"
	"github.com/jhoicas/asistente-tienda-api/internal/domain/entity"
)

// productJS forma del endpoint público /products/{handle}.js.
// price viene en centavos; options puede ser lista de nombres o de objetos {name}.
type productJS struct {
	ID       int64        `json:"id"`
	Title    string       `json:"title"`
	Handle   string       `json:"handle"`
	Options  []optionName `json:"options"`
	Variants []struct {
		ID        int64   `json:"id"`
		Title     string  `json:"title"`
		Available bool    `json:"available"`
		Option1   *string `json:"option1"`
		Option2   *string `json:"option2"`
		Option3   *string `json:"option3"`
		Price     int64   `json:"price"`
	} `json:"variants"`
}

type optionName string

func (o *optionName) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*o = optionName(s)
		return nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*o = optionName(obj.Name)
	return nil
}

// FetchVariantDetail lee el producto por handle con las columnas option1..option3.
func (c *Client) FetchVariantDetail(ctx context.Context, handle string) (*entity.ProductDetail, error) {
	raw, err := c.getJSON(ctx, detailURL(c.publicURL, handle))
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusNotFound {
			return nil, fmt.Errorf("shopify: producto %q: %w", handle, domain.ErrNotFound)
		}
		return nil, err
	}

	var p productJS
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, protocolError("deserializar producto %q: %v", handle, err)
	}

	detail := &entity.ProductDetail{
		ID:          p.ID,
		Title:       p.Title,
		Handle:      p.Handle,
		OptionNames: make([]string, 0, len(p.Options)),
		Variants:    make([]entity.VariantDetail, 0, len(p.Variants)),
	}
	for _, o := range p.Options {
		detail.OptionNames = append(detail.OptionNames, string(o))
	}
	for _, v := range p.Variants {
		detail.Variants = append(detail.Variants, entity.VariantDetail{
			ID:        v.ID,
			Title:     v.Title,
			Available: v.Available,
			Option1:   deref(v.Option1),
			Option2:   deref(v.Option2),
			Option3:   deref(v.Option3),
			Price:     decimal.New(v.Price, -2),
		})
	}
	return detail, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
