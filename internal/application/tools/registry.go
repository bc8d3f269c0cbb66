package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/jhoicas/asistente-tienda-api/internal/domain"
	"github.com/jhoicas/asistente-tienda-api/internal/domain/entity"
)

// Nombres de las herramientas ofrecidas al modelo.
const (
	ToolSearchProducts      = "searchProducts"
	ToolGetVariantByOptions = "getVariantByOptions"
	ToolAddToCartClient     = "addToCartClient"
	ToolGetFAQ              = "getFAQ"
)

// SearchProductsArgs argumentos de searchProducts.
type SearchProductsArgs struct {
	Query string `json:"query" mapstructure:"query" jsonschema:"minLength=1" jsonschema_description:"Texto de búsqueda en español, por ejemplo: quitar moho baño"`
}

// GetVariantByOptionsArgs argumentos de getVariantByOptions.
type GetVariantByOptionsArgs struct {
	Handle  string            `json:"handle" mapstructure:"handle" jsonschema:"minLength=1" jsonschema_description:"Handle del producto tal como aparece en los resultados de searchProducts"`
	Options map[string]string `json:"options,omitempty" mapstructure:"options" jsonschema_description:"Opciones deseadas, por ejemplo {\"color\": \"blanco\", \"tamaño\": \"1 galón\"}"`
}

// AddToCartClientArgs argumentos de addToCartClient.
type AddToCartClientArgs struct {
	VariantID string `json:"variantId,omitempty" mapstructure:"variantId" jsonschema_description:"ID numérico de la variante devuelto por getVariantByOptions"`
	Quantity  int    `json:"quantity,omitempty" mapstructure:"quantity" jsonschema:"minimum=1,default=1" jsonschema_description:"Cantidad de unidades"`
}

// GetFAQArgs argumentos de getFAQ. El enum acepta las claves canónicas y sus alias en inglés.
type GetFAQArgs struct {
	Topic string `json:"topic" mapstructure:"topic" jsonschema:"enum=envios,enum=cambios,enum=pagos,enum=puntos,enum=shipping,enum=exchanges,enum=payments,enum=loyaltyPoints" jsonschema_description:"Tema de la pregunta frecuente"`
}

// toolSpec declaración más el esquema compilado y la respuesta neutra usada cuando
// los argumentos del modelo no son válidos. Con strict=false el esquema solo se declara
// al modelo; los argumentos se aceptan con cualquier objeto JSON y se convierten al decodificar.
type toolSpec struct {
	decl    entity.ToolDeclaration
	schema  *jsonschema.Schema
	kind    entity.ToolResultKind
	strict  bool
	neutral func() any
}

// Registry conjunto fijo de herramientas. Se construye una vez al arrancar y solo se lee.
type Registry struct {
	specs map[string]*toolSpec
	order []string
}

// NewRegistry genera los esquemas JSON de cada herramienta y los compila para validar argumentos.
func NewRegistry() (*Registry, error) {
	r := &Registry{specs: make(map[string]*toolSpec)}

	defs := []struct {
		name        string
		description string
		args        any
		kind        entity.ToolResultKind
		strict      bool
		neutral     func() any
	}{
		{
			name: ToolSearchProducts,
			description: "Busca productos en el catálogo de la tienda. Úsala SIEMPRE antes de recomendar " +
				"o mencionar productos, precios o enlaces.",
			args:    &SearchProductsArgs{},
			kind:    entity.ServerResult,
			strict:  true,
			neutral: func() any { return SearchPayload{Products: []entity.CatalogProduct{}} },
		},
		{
			name: ToolGetVariantByOptions,
			description: "Obtiene el ID de la variante exacta (color, aroma, tamaño...) de un producto. " +
				"Úsala antes de addToCartClient.",
			args:    &GetVariantByOptionsArgs{},
			kind:    entity.ServerResult,
			neutral: func() any { return map[string]any{} },
		},
		{
			name: ToolAddToCartClient,
			description: "Agrega una variante al carrito del usuario. La ejecuta el navegador; usa el " +
				"variantId devuelto por getVariantByOptions.",
			args:    &AddToCartClientArgs{},
			kind:    entity.ClientDelegation,
			neutral: func() any { return map[string]any{} },
		},
		{
			name:        ToolGetFAQ,
			description: "Responde preguntas frecuentes de la tienda: envíos, cambios, pagos y puntos.",
			args:        &GetFAQArgs{},
			kind:        entity.ServerResult,
			strict:      true,
			neutral:     func() any { return FAQPayload{Answer: ""} },
		},
	}

	for _, d := range defs {
		raw, err := reflectSchema(d.args)
		if err != nil {
			return nil, fmt.Errorf("tools: esquema de %s: %w", d.name, err)
		}
		compiled, err := jsonschema.CompileString(d.name+".json", string(raw))
		if err != nil {
			return nil, fmt.Errorf("tools: compilar esquema de %s: %w", d.name, err)
		}
		r.specs[d.name] = &toolSpec{
			decl: entity.ToolDeclaration{
				Name:        d.name,
				Description: d.description,
				Parameters:  raw,
			},
			schema:  compiled,
			kind:    d.kind,
			strict:  d.strict,
			neutral: d.neutral,
		}
		r.order = append(r.order, d.name)
	}
	return r, nil
}

// reflectSchema genera el JSON Schema del struct sin $schema ni $ref, como lo esperan los proveedores.
func reflectSchema(args any) (json.RawMessage, error) {
	reflector := invopop.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		Anonymous:                 true,
	}
	s := reflector.Reflect(args)
	s.Version = ""
	return json.Marshal(s)
}

// Declarations devuelve las declaraciones en orden fijo.
func (r *Registry) Declarations() []entity.ToolDeclaration {
	out := make([]entity.ToolDeclaration, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.specs[name].decl)
	}
	return out
}

// Kind indica si la herramienta la ejecuta el servidor o el navegador.
// Las herramientas desconocidas se tratan como de servidor.
func (r *Registry) Kind(name string) entity.ToolResultKind {
	if s, ok := r.specs[name]; ok {
		return s.kind
	}
	return entity.ServerResult
}

// Known indica si el nombre corresponde a una herramienta declarada.
func (r *Registry) Known(name string) bool {
	_, ok := r.specs[name]
	return ok
}

// Neutral respuesta vacía de la herramienta, usada cuando sus argumentos no son válidos.
func (r *Registry) Neutral(name string) any {
	if s, ok := r.specs[name]; ok {
		return s.neutral()
	}
	return map[string]any{}
}

// ParseArguments parsea el string JSON del modelo y, si la herramienta es estricta, lo valida
// contra su esquema. getVariantByOptions y addToCartClient solo exigen un objeto JSON: sus tipos
// se ajustan al decodificar ("variantId": 987 → "987").
// Cualquier fallo se reporta envuelto en domain.ErrMalformedToolArguments.
func (r *Registry) ParseArguments(name, raw string) (map[string]any, error) {
	s, ok := r.specs[name]
	if !ok {
		return nil, fmt.Errorf("herramienta desconocida %q: %w", name, domain.ErrMalformedToolArguments)
	}
	if strings.TrimSpace(raw) == "" {
		raw = "{}"
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", name, domain.ErrMalformedToolArguments, err)
	}
	if s.strict {
		if err := s.schema.Validate(v); err != nil {
			return nil, fmt.Errorf("%s: %w: %v", name, domain.ErrMalformedToolArguments, err)
		}
	}
	args, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: %w: se esperaba un objeto", name, domain.ErrMalformedToolArguments)
	}
	return args, nil
}
