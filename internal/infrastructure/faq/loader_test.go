package faq_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/asistente-tienda-api/internal/domain/entity"
	"github.com/jhoicas/asistente-tienda-api/internal/infrastructure/faq"
)

func TestLoad_RespuestasEmbebidas(t *testing.T) {
	f, err := faq.Load("")
	require.NoError(t, err)

	for _, topic := range []string{entity.FAQShipping, entity.FAQExchanges, entity.FAQPayments, entity.FAQLoyaltyPoints} {
		assert.NotEmpty(t, f.Answer(topic), "el tema %s debe tener respuesta", topic)
	}
}

func TestLoad_AliasEnIngles(t *testing.T) {
	f, err := faq.Load("")
	require.NoError(t, err)

	assert.Equal(t, f.Answer("envios"), f.Answer("shipping"))
	assert.Equal(t, f.Answer("puntos"), f.Answer("loyaltyPoints"))
}

func TestLoad_ArchivoReemplazaEmbebidas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faq.yaml")
	require.NoError(t, os.WriteFile(path, []byte("envios: Solo Bogotá.\n"), 0o600))

	f, err := faq.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Solo Bogotá.", f.Answer("envios"))
	assert.Empty(t, f.Answer("pagos"))
}

func TestLoad_ArchivoInexistente(t *testing.T) {
	_, err := faq.Load(filepath.Join(t.TempDir(), "no-existe.yaml"))
	assert.Error(t, err)
}

func TestParse_YAMLInvalido(t *testing.T) {
	_, err := faq.Parse([]byte("envios: [sin cerrar"))
	assert.Error(t, err)
}
