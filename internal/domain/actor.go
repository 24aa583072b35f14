package domain

// Actor é a identidade autenticada que acompanha toda chamada ao núcleo.
// Ela é fornecida pelo middleware de autenticação e nunca calculada pelos serviços.
type Actor struct {
	TenantID string
	UserID   string
	Role     UserRole
}
