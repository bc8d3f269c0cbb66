package faq

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jhoicas/asistente-tienda-api/internal/domain/entity"
)

//go:embed faq.yaml
var defaultFAQ []byte

// Load lee las respuestas frecuentes una sola vez al arrancar.
// Con path vacío usa las respuestas embebidas; con path, el archivo reemplaza por completo las embebidas.
func Load(path string) (*entity.FAQ, error) {
	data := defaultFAQ
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("faq: leer %s: %w", path, err)
		}
		data = b
	}
	return Parse(data)
}

// Parse decodifica un YAML de la forma `tema: respuesta`.
func Parse(data []byte) (*entity.FAQ, error) {
	var answers map[string]string
	if err := yaml.Unmarshal(data, &answers); err != nil {
		return nil, fmt.Errorf("faq: parsear YAML: %w", err)
	}
	return entity.NewFAQ(answers), nil
}
