package server

func (s *Server) initRoutes() {
	// LOGIN
	s.RegisterRouteFunc("GET "+RouteAuthLogin, s.LoginHandler())
	s.RegisterRouteHandler("GET "+RouteAuthCallback, ChainMiddleware(s.CallbackHandler(), s.APIMiddleware()...))

	// SESSION
	s.RegisterRouteHandler("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))

	// Protected user endpoints (require valid bearer access token)
	s.RegisterRouteHandler("GET "+RouteUsersMe, ChainMiddleware(s.MeHandler(), s.ProtectedAPIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteUsersAll, ChainMiddleware(s.UsersAllHandler(), s.ProtectedAPIMiddleware()...))

	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())

	// The method-qualified patterns above never match OPTIONS, so browser
	// preflights need their own route through the CORS middleware.
	s.RegisterRouteHandler("OPTIONS /", ChainMiddleware(s.PreflightHandler(), s.APIMiddleware()...))
}
