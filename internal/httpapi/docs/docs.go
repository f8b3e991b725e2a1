// Package docs holds the OpenAPI description served by the swagger build.
// Regenerate with `swag init -g cmd/livefeed/docs.go -o internal/httpapi/docs`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {"name": "livefeed maintainers"},
        "license": {"name": "MIT", "url": "https://opensource.org/licenses/MIT"},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/nodes": {
            "get": {"summary": "List nodes with a channel manager", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/nodes/{node}/connect": {
            "post": {
                "summary": "Take a reference on the node channel",
                "parameters": [{"name": "node", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}}
            }
        },
        "/nodes/{node}/disconnect": {
            "post": {
                "summary": "Release a reference on the node channel",
                "parameters": [{"name": "node", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}}
            }
        },
        "/nodes/{node}/poll": {
            "put": {
                "summary": "Display a feed and poll it",
                "consumes": ["application/json"],
                "parameters": [
                    {"name": "node", "in": "path", "required": true, "type": "string"},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.PollRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            },
            "delete": {
                "summary": "Stop polling",
                "parameters": [{"name": "node", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}}
            }
        },
        "/nodes/{node}/status": {
            "get": {
                "summary": "Channel and request gate state",
                "parameters": [{"name": "node", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}}
            }
        },
        "/nodes/{node}/feeds/{feed}": {
            "get": {
                "summary": "Current snapshot and flags of a feed",
                "parameters": [
                    {"name": "node", "in": "path", "required": true, "type": "string"},
                    {"name": "feed", "in": "path", "required": true, "type": "string", "enum": ["ps", "net"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.FeedResponse"}},
                    "404": {"description": "Unknown feed", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/nodes/{node}/feeds/{feed}/filter": {
            "patch": {
                "summary": "Update filter criteria",
                "consumes": ["application/json"],
                "parameters": [
                    {"name": "node", "in": "path", "required": true, "type": "string"},
                    {"name": "feed", "in": "path", "required": true, "type": "string", "enum": ["ps", "net"]},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.FilterPatch"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.FeedResponse"}}}
            },
            "delete": {
                "summary": "Reset filter criteria",
                "parameters": [
                    {"name": "node", "in": "path", "required": true, "type": "string"},
                    {"name": "feed", "in": "path", "required": true, "type": "string", "enum": ["ps", "net"]}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.FeedResponse"}}}
            }
        },
        "/nodes/{node}/events": {
            "get": {
                "summary": "Server-sent stream of channel and feed events",
                "produces": ["text/event-stream"],
                "parameters": [{"name": "node", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "types.PollRequest": {
            "type": "object",
            "properties": {
                "feed": {"type": "string", "example": "ps"},
                "interval_ms": {"type": "integer", "example": 3000},
                "initial_delay_ms": {"type": "integer", "example": 0}
            }
        },
        "types.FilterPatch": {
            "type": "object",
            "properties": {
                "pid": {"type": "integer"},
                "username": {"type": "string"},
                "name": {"type": "string"},
                "processID": {"type": "integer"},
                "processName": {"type": "string"},
                "port": {"type": "integer"}
            }
        },
        "types.FeedResponse": {
            "type": "object",
            "properties": {
                "feed": {"type": "string", "example": "ps"},
                "loading": {"type": "boolean"},
                "fetching": {"type": "boolean"},
                "updated_at": {"type": "integer"},
                "processes": {"type": "array", "items": {"type": "object"}},
                "connections": {"type": "array", "items": {"type": "object"}},
                "filter": {"type": "object"}
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "node": {"type": "string", "example": "node-1"},
                "state": {"type": "string", "example": "open"},
                "refs": {"type": "integer", "example": 1},
                "active": {"type": "string", "example": "ps"},
                "in_flight": {"type": "string"},
                "pending": {"type": "string"},
                "teardown_scheduled": {"type": "boolean"}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "unknown feed"},
                "code": {"type": "integer", "example": 400}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "livefeed API",
	Description:      "Bridge API for live process and network telemetry over node WebSocket channels.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
