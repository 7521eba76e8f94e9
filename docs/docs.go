// Package docs is generated by swag from the godoc annotations of the
// handlers. Regenerate with: swag init -g cmd/server/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/healthz": {
            "get": {
                "produces": ["text/plain"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "ok", "schema": {"type": "string"}}}
            }
        },
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login",
                "parameters": [
                    {"description": "Credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.AuthResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/books": {
            "get": {
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "List books",
                "parameters": [
                    {"type": "integer", "description": "Page number", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size (max 100)", "name": "limit", "in": "query"},
                    {"type": "string", "description": "Title contains", "name": "search", "in": "query"},
                    {"type": "integer", "description": "Filter by author", "name": "author_id", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/loans": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["loans"],
                "summary": "Borrow a book",
                "parameters": [
                    {"description": "Loan", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.CreateLoanRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "errors.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "handler.AuthResponse": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "refresh_token": {"type": "string"}
            }
        },
        "handler.CreateLoanRequest": {
            "type": "object",
            "required": ["book_id"],
            "properties": {
                "book_id": {"type": "integer"},
                "days": {"type": "integer", "minimum": 1},
                "user_id": {"type": "integer"}
            }
        },
        "handler.LoginRequest": {
            "type": "object",
            "required": ["password", "username"],
            "properties": {
                "password": {"type": "string"},
                "username": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api",
	Schemes:          []string{"http"},
	Title:            "PedBook API",
	Description:      "Library management API: books, authors, loans, reviews and users.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
