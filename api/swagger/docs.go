// Package swagger registers the OpenAPI document served at /swagger.
// The path list is kept in step with the handler annotations by hand;
// go generate rebuilds the full document from those annotations.
package swagger

//go:generate swag init -d ../.. -g cmd/api/main.go -o . --outputTypes go

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
        "/api/quotations": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["quotations"], "summary": "List quotation requests", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["quotations"], "summary": "Create quotation request", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/api/quotations/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["quotations"], "summary": "Get quotation request", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["quotations"], "summary": "Update draft quotation", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}
        },
        "/api/quotations/{id}/send": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["quotations"], "summary": "Send quotation to suppliers", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}
        },
        "/api/quotations/{id}/cancel": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["quotations"], "summary": "Cancel quotation", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}
        },
        "/api/quotations/{id}/close-eligibility": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["quotations"], "summary": "Close eligibility", "responses": {"200": {"description": "OK"}}}
        },
        "/api/quotations/{id}/close": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["quotations"], "summary": "Close quotation", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}
        },
        "/api/quotations/{id}/force-close": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["quotations"], "summary": "Force-close quotation", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}
        },
        "/api/quotations/{id}/responses": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["responses"], "summary": "List supplier responses", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["responses"], "summary": "Submit supplier response", "responses": {"201": {"description": "Created"}, "403": {"description": "Forbidden"}, "409": {"description": "Conflict"}}}
        },
        "/api/responses/{id}/reject": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["responses"], "summary": "Reject supplier response", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}
        },
        "/api/responses/{id}/purchase-order": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["responses"], "summary": "Accept response and create purchase order", "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}
        },
        "/api/purchase-orders": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["purchase-orders"], "summary": "List purchase orders", "responses": {"200": {"description": "OK"}}}
        },
        "/api/purchase-orders/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["purchase-orders"], "summary": "Get purchase order", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/api/suppliers": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["suppliers"], "summary": "List suppliers", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["suppliers"], "summary": "Create supplier", "responses": {"201": {"description": "Created"}}}
        },
        "/api/suppliers/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["suppliers"], "summary": "Get supplier", "responses": {"200": {"description": "OK"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["suppliers"], "summary": "Update supplier", "responses": {"200": {"description": "OK"}}}
        },
        "/api/audit-logs": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["audit"], "summary": "Get audit logs", "responses": {"200": {"description": "OK"}}}
        },
        "/api/auth/login": {
            "post": {"tags": ["auth"], "summary": "Login", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}
        },
        "/api/auth/logout": {
            "post": {"tags": ["auth"], "summary": "Logout", "responses": {"200": {"description": "OK"}}}
        },
        "/api/users": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "List users", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Create user", "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}
        },
        "/api/users/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Get user", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
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
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Procurement Workflow API",
	Description:      "Quotation requests, supplier responses and purchase orders for construction projects.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
