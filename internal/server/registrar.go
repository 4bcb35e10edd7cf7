package server

import "net/http"

// Registrar is a common interface for all HTTP route registrars
type Registrar interface {
	Register(mux *http.ServeMux)
}
