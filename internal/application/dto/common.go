package dto

// Límites de paginación de los listados del libro.
const (
	DefaultPageLimit = 50
	MaxPageLimit     = 500
)

// PageRequest se llena desde la query (?limit=&offset=).
type PageRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// DefaultPage normaliza la página: limit fuera de (0, MaxPageLimit] se ajusta y offset negativo pasa a 0.
func (p *PageRequest) DefaultPage() {
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultPageLimit
	case p.Limit > MaxPageLimit:
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse describe la página devuelta. Total es la cantidad de filas de esta página.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// ErrorResponse es el cuerpo de todo error HTTP; Code es estable para los clientes.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
