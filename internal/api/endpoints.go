package api

import "github.com/guardia-io/guardia/internal/authz"

// Menu identifiers: authorization scope keys, one per protected module.
const (
	MenuUsers = "usuarios"
)

// Route patterns registered on the server mux.
const (
	RouteIdentifyUser  = "POST /identificar-usuario"
	RouteVerifyCode    = "POST /verificar-2fa"
	RouteRegisterUser  = "POST /usuarios"
	RouteResetPassword = "POST /recuperar-clave"
	RouteListUsers     = "GET /usuarios"
)

// PublicEndpoints defines endpoints that don't require authentication
var PublicEndpoints = map[string]bool{
	RouteIdentifyUser:  true,
	RouteVerifyCode:    true,
	RouteRegisterUser:  true,
	RouteResetPassword: true,
}

// Requirements is the routing metadata for protected endpoints: the (menu,
// action) pair each one exercises. The authentication strategy consults this
// per request.
var Requirements = map[string]authz.Requirement{
	RouteListUsers: {MenuID: MenuUsers, Action: authz.ActionList},
}
