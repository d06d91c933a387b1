// Package docs registers the OpenAPI description served at /swagger.
// Regenerate with `swag init -g cmd/server/main.go` after changing handler
// annotations.
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
        "/unlock-content": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Unlock"],
                "summary": "Unlock the content of a completed order",
                "operationId": "unlockContent",
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.UnlockContentRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.UnlockContentResponse"}},
                    "400": {"description": "Order not completed or already unlocked", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "403": {"description": "Not the order owner", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Order not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/redeem": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Unlock"],
                "summary": "Redeem an access key",
                "operationId": "redeemKey",
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.RedeemRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.RedeemResponse"}},
                    "400": {"description": "Invalid key", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "429": {"description": "Too many attempts", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/entitlements": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Entitlements"],
                "summary": "List the caller's unlocked materials",
                "operationId": "listEntitlements",
                "parameters": [
                    {"type": "boolean", "name": "downloaded", "in": "query"},
                    {"type": "integer", "default": 1, "name": "page", "in": "query"},
                    {"type": "integer", "default": 20, "name": "page_size", "in": "query"},
                    {"type": "string", "name": "If-None-Match", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListEntitlementsResponse"}},
                    "304": {"description": "Not modified"}
                }
            }
        },
        "/entitlements/{id}/download": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Entitlements"],
                "summary": "Issue a download URL for an entitlement",
                "operationId": "authorizeDownload",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "body", "in": "body", "schema": {"$ref": "#/definitions/handlers.AuthorizeDownloadRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.DownloadGrant"}},
                    "403": {"description": "Not the owner", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Entitlement or note file not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Re-download not confirmed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/download": {
            "get": {
                "produces": ["application/pdf"],
                "tags": ["Entitlements"],
                "summary": "Stream a watermarked note",
                "operationId": "download",
                "parameters": [
                    {"type": "string", "name": "file", "in": "query", "required": true},
                    {"type": "string", "name": "ticket", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "PDF bytes"},
                    "401": {"description": "Ticket invalid", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Watermark failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/orders": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Orders"],
                "summary": "List the caller's orders",
                "operationId": "listOrders",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListOrdersResponse"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Orders"],
                "summary": "Place an order",
                "operationId": "checkout",
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CheckoutRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Order"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/orders/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Orders"],
                "summary": "Get one of the caller's orders",
                "operationId": "getOrder",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Order"}},
                    "404": {"description": "Order not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/admin/keys": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "List access keys",
                "operationId": "listKeys",
                "parameters": [
                    {"type": "string", "name": "item_id", "in": "query"},
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "integer", "default": 100, "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.KeysResponse"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Mint access keys",
                "operationId": "mintKeys",
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.MintKeysRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.KeysResponse"}},
                    "422": {"description": "Unknown unit", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/admin/orders/{id}/complete": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Confirm payment for an order",
                "operationId": "completeOrder",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Order"}},
                    "409": {"description": "Invalid transition", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/admin/orders/{id}/processing": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Mark an order as processing",
                "operationId": "markOrderProcessing",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Order"}},
                    "409": {"description": "Invalid transition", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string"},
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "handlers.UnlockContentRequest": {
            "type": "object",
            "required": ["orderId"],
            "properties": {"orderId": {"type": "string"}}
        },
        "handlers.UnlockContentResponse": {
            "type": "object",
            "properties": {"success": {"type": "boolean"}, "unlocked": {"type": "integer"}}
        },
        "handlers.RedeemRequest": {
            "type": "object",
            "required": ["key"],
            "properties": {"key": {"type": "string", "maxLength": 64}}
        },
        "handlers.RedeemResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "entitlements": {"type": "array", "items": {"$ref": "#/definitions/domain.Entitlement"}}
            }
        },
        "handlers.AuthorizeDownloadRequest": {
            "type": "object",
            "properties": {"confirmRedownload": {"type": "boolean"}}
        },
        "handlers.Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"},
                "has_next": {"type": "boolean"}
            }
        },
        "handlers.ListEntitlementsResponse": {
            "type": "object",
            "properties": {
                "entitlements": {"type": "array", "items": {"$ref": "#/definitions/domain.Entitlement"}},
                "pagination": {"$ref": "#/definitions/handlers.Pagination"}
            }
        },
        "handlers.CheckoutRequest": {
            "type": "object",
            "required": ["items"],
            "properties": {"items": {"type": "array", "items": {"$ref": "#/definitions/services.CheckoutItem"}}}
        },
        "handlers.ListOrdersResponse": {
            "type": "object",
            "properties": {"orders": {"type": "array", "items": {"$ref": "#/definitions/domain.Order"}}}
        },
        "handlers.MintKeysRequest": {
            "type": "object",
            "required": ["item_id", "content_type"],
            "properties": {
                "item_id": {"type": "string"},
                "content_type": {"type": "string", "enum": ["note", "assignment"]},
                "count": {"type": "integer", "minimum": 1, "maximum": 500}
            }
        },
        "handlers.KeysResponse": {
            "type": "object",
            "properties": {"keys": {"type": "array", "items": {"$ref": "#/definitions/domain.AccessKey"}}}
        },
        "services.CheckoutItem": {
            "type": "object",
            "required": ["item_id", "content_type", "language"],
            "properties": {
                "item_id": {"type": "string"},
                "content_type": {"type": "string", "enum": ["note", "assignment"]},
                "language": {"type": "string"},
                "unit_price": {"type": "number"}
            }
        },
        "services.DownloadGrant": {
            "type": "object",
            "properties": {
                "url": {"type": "string"},
                "expires_at": {"type": "string"},
                "watermarked": {"type": "boolean"},
                "file_name": {"type": "string"}
            }
        },
        "domain.AccessKey": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "key": {"type": "string"},
                "item_id": {"type": "string"},
                "content_type": {"type": "string"},
                "status": {"type": "string", "enum": ["available", "bound"]},
                "bound_to": {"type": "string"},
                "bound_at": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "domain.Entitlement": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "user_id": {"type": "string"},
                "source_kind": {"type": "string", "enum": ["order", "access_key"]},
                "source_id": {"type": "string"},
                "item_id": {"type": "string"},
                "content_type": {"type": "string"},
                "language": {"type": "string"},
                "part": {"type": "integer"},
                "part_label": {"type": "string"},
                "unlocked_at": {"type": "string"},
                "downloaded": {"type": "boolean"},
                "downloaded_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "domain.Order": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "user_id": {"type": "string"},
                "status": {"type": "string"},
                "content_unlocked": {"type": "boolean"},
                "total_price": {"type": "number"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "StudyVault Delivery API",
	Description:      "Entitlement and secure delivery of study materials.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
