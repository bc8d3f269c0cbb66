package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// Los adaptadores los envuelven con fmt.Errorf("...: %w", ...) y las capas superiores
// los reconocen con errors.Is.
var (
	// ErrUpstreamUnavailable fallo de transporte o estado HTTP no exitoso del catálogo o del LLM.
	ErrUpstreamUnavailable = errors.New("servicio externo no disponible")
	// ErrUpstreamProtocol respuesta bien formada pero con un error reportado en el payload.
	ErrUpstreamProtocol = errors.New("error de protocolo en servicio externo")
	// ErrNotFound el handle no corresponde a ningún producto del catálogo.
	ErrNotFound = errors.New("recurso no encontrado")
	// ErrNoVariantsAvailable el producto existe pero no tiene variantes.
	ErrNoVariantsAvailable = errors.New("el producto no tiene variantes")
	// ErrMalformedToolArguments los argumentos JSON enviados por el modelo no son válidos.
	ErrMalformedToolArguments = errors.New("argumentos de herramienta inválidos")
	// ErrQuotaExceeded el proveedor LLM reporta límite de cuota o de tasa.
	ErrQuotaExceeded = errors.New("cuota del proveedor LLM excedida")
	// ErrInvalidInput la petición de chat no trae message ni toolResult.
	ErrInvalidInput = errors.New("entrada inválida")
)
