package channels

import "context"

// Outcome es el resultado de un envío aceptado por el transporte.
type Outcome struct {
	// Delivered: el canal confirmó entrega al destinatario (no todos
	// los canales lo soportan; email normalmente solo "aceptado").
	Delivered bool
	// ProviderMessageID es el id que asignó el proveedor, si lo hay.
	ProviderMessageID string
}

// Provider envía contenido ya renderizado por un canal concreto.
// recipient es opaco para el core (email, teléfono, id de contacto...):
// cada adapter sabe resolverlo contra su proveedor.
type Provider interface {
	Send(ctx context.Context, recipient, content string) (Outcome, error)
}
