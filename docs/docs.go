// Package docs holds the OpenAPI document served under /swagger.
// Regenerate with `go generate ./cmd/api` after changing handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/signup": {"post": {"tags": ["auth"], "summary": "Register a new account", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Login", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "429": {"description": "Too Many Requests"}}}},
        "/auth/logout": {"post": {"tags": ["auth"], "summary": "Logout", "responses": {"204": {"description": "No Content"}}}},
        "/books": {
            "get": {"security": [{"BearerAuth": []}, {"SessionAuth": []}], "tags": ["books"], "summary": "List own books, newest first", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}, {"SessionAuth": []}], "tags": ["books"], "summary": "Add a book to the own library", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/books/{id}": {
            "get": {"security": [{"BearerAuth": []}, {"SessionAuth": []}], "tags": ["books"], "summary": "Get a book by id", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}},
            "put": {"security": [{"BearerAuth": []}, {"SessionAuth": []}], "tags": ["books"], "summary": "Partially update an own book", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}},
            "delete": {"security": [{"BearerAuth": []}, {"SessionAuth": []}], "tags": ["books"], "summary": "Delete an own book", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}}
        },
        "/books/bulk-delete": {"delete": {"security": [{"BearerAuth": []}, {"SessionAuth": []}], "tags": ["books"], "summary": "Delete several own books", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}}},
        "/books/filter": {"post": {"security": [{"BearerAuth": []}, {"SessionAuth": []}], "tags": ["books"], "summary": "Filter, sort and page own books", "responses": {"200": {"description": "OK"}}}},
        "/books/export": {"post": {"security": [{"BearerAuth": []}, {"SessionAuth": []}], "tags": ["books"], "summary": "Export own books matching the filters as CSV", "produces": ["text/csv"], "responses": {"200": {"description": "OK"}}}},
        "/books/explore": {"get": {"tags": ["books"], "summary": "Browse public books of all readers", "responses": {"200": {"description": "OK"}}}},
        "/books/stats/details": {"get": {"security": [{"BearerAuth": []}, {"SessionAuth": []}], "tags": ["books"], "summary": "Library analytics", "responses": {"200": {"description": "OK"}}}},
        "/users": {"get": {"security": [{"BearerAuth": []}, {"SessionAuth": []}], "tags": ["users"], "summary": "List users (admin)", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}},
        "/users/profile": {
            "get": {"security": [{"BearerAuth": []}, {"SessionAuth": []}], "tags": ["users"], "summary": "Current user's profile", "responses": {"200": {"description": "OK"}}},
            "put": {"security": [{"BearerAuth": []}, {"SessionAuth": []}], "tags": ["users"], "summary": "Update username, email or own role", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}
        },
        "/users/{id}/role": {"put": {"security": [{"BearerAuth": []}, {"SessionAuth": []}], "tags": ["users"], "summary": "Change another user's role", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}}},
        "/users/wishlist": {"get": {"security": [{"BearerAuth": []}, {"SessionAuth": []}], "tags": ["wishlist"], "summary": "Wishlisted books, oldest addition first", "responses": {"200": {"description": "OK"}}}},
        "/users/wishlist/toggle/{bookId}": {"post": {"security": [{"BearerAuth": []}, {"SessionAuth": []}], "tags": ["wishlist"], "summary": "Add a book to the wishlist, or remove it when already present", "parameters": [{"type": "string", "name": "bookId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/users/wishlist/bulk": {"post": {"security": [{"BearerAuth": []}, {"SessionAuth": []}], "tags": ["wishlist"], "summary": "Add several books to the wishlist", "responses": {"200": {"description": "OK"}}}},
        "/users/wishlist/bulk-remove": {"post": {"security": [{"BearerAuth": []}, {"SessionAuth": []}], "tags": ["wishlist"], "summary": "Remove several books from the wishlist", "responses": {"200": {"description": "OK"}}}},
        "/google-books/search": {"get": {"tags": ["google-books"], "summary": "Search the Google Books catalogue", "parameters": [{"type": "string", "name": "q", "in": "query", "required": true}, {"type": "integer", "name": "startIndex", "in": "query"}], "responses": {"200": {"description": "OK"}, "502": {"description": "Bad Gateway"}}}},
        "/google-books/isbn/{isbn}": {"get": {"tags": ["google-books"], "summary": "Look up a volume by ISBN", "parameters": [{"type": "string", "name": "isbn", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "502": {"description": "Bad Gateway"}}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"description": "Bearer token returned by /auth/login", "type": "apiKey", "name": "Authorization", "in": "header"},
        "SessionAuth": {"description": "HttpOnly session cookie", "type": "apiKey", "name": "bookshelf_session", "in": "cookie"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/v1",
	Schemes:          []string{},
	Title:            "bookshelf_api API",
	Description:      "Personal library, public catalogue and reading analytics.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
