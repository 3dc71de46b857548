package server

const (
	RouteAuthLogin    = "/auth/login"
	RouteAuthCallback = "/auth/callback"
	RouteAuthRefresh  = "/auth/refresh"
	RouteAuthLogout   = "/auth/logout"
	RouteUsersMe      = "/users/me"
	RouteUsersAll     = "/users/all"
	RouteHealth       = "/health"
)

// RefreshCookieName is the http-only cookie carrying the refresh token.
const RefreshCookieName = "app_refresh_token"
