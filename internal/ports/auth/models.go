package auth

// Claims representa la información extraída del token.
type Claims struct {
	UserID string
	Email  string
	// Role distingue staff de la peluquería ("staff") de clientes ("customer").
	Role string
}
