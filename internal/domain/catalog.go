package domain

import "time"

// Goods é um item do catálogo de mercadorias do tenant.
type Goods struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"-"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit"`
	CreatedAt time.Time `json:"createdAt"`
}

// Supplier é um fornecedor cadastrado no catálogo do tenant.
type Supplier struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Location é um ponto físico do armazém onde as caixas são lidas.
type Location struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"-"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
