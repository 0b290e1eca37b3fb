// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with: swag init -g cmd/shop/main.go
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
        "/api/v1/cart": {
            "get": {"produces": ["application/json"], "tags": ["cart"], "summary": "View cart", "responses": {"200": {"description": "OK"}}},
            "delete": {"produces": ["application/json"], "tags": ["cart"], "summary": "Clear cart", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/cart/items/{id}": {
            "post": {"tags": ["cart"], "summary": "Add a print to the cart", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "409": {"description": "Unavailable"}}},
            "put": {"tags": ["cart"], "summary": "Set quantity", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["cart"], "summary": "Remove a print", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/checkout/session": {
            "post": {"tags": ["checkout"], "summary": "Start checkout", "responses": {"200": {"description": "OK"}, "400": {"description": "Empty cart"}, "409": {"description": "Print no longer available"}, "502": {"description": "Payment provider error"}}}
        },
        "/api/v1/checkout/success": {
            "get": {"tags": ["checkout"], "summary": "Checkout return", "parameters": [{"type": "string", "name": "session_id", "in": "query", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/checkout/cancel": {
            "get": {"tags": ["checkout"], "summary": "Checkout cancelled", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/webhooks/stripe": {
            "post": {"tags": ["checkout"], "summary": "Stripe webhook", "parameters": [{"type": "string", "name": "Stripe-Signature", "in": "header", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Rejected"}, "413": {"description": "Payload too large"}}}
        },
        "/api/v1/downloads/{id}": {
            "get": {"tags": ["downloads"], "summary": "Download a purchased print", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "File"}, "403": {"description": "Not purchased"}, "404": {"description": "Not found"}}}
        },
        "/api/v1/gallery": {
            "get": {"tags": ["gallery"], "summary": "Gallery", "parameters": [{"type": "string", "name": "category", "in": "query"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Unknown category"}}}
        },
        "/api/v1/gallery/prints/{slug}": {
            "get": {"tags": ["gallery"], "summary": "Print detail", "parameters": [{"type": "string", "name": "slug", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}
        },
        "/api/v1/account/dashboard": {
            "get": {"tags": ["account"], "summary": "Account dashboard", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}
        },
        "/api/v1/commissions": {
            "get": {"tags": ["commissions"], "summary": "List commissions", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["commissions"], "summary": "Request a commission", "responses": {"201": {"description": "Created"}, "400": {"description": "Invalid"}}}
        },
        "/api/v1/commissions/estimate": {
            "post": {"tags": ["commissions"], "summary": "Estimate a commission price", "responses": {"200": {"description": "OK"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Art Shop API",
	Description:      "Cart, checkout and download API for the art print shop.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
