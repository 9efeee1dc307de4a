//go:generate swag init -g docs.go -o ../../docs --parseDependency --parseInternal --dir .,../../internal/httpapi

package main

// @title bookshelf_api API
// @version 1.0
// @description Personal library, public catalogue and reading analytics.
// @BasePath /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token returned by /auth/login
// @securityDefinitions.apikey SessionAuth
// @in cookie
// @name bookshelf_session
// @description HttpOnly session cookie
