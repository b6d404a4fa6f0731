// Package docs registers the OpenAPI description of the mysteryd HTTP API
// with swag. Regenerate with `swag init -g cmd/mysteryd/docs.go`.
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
        "/status": {
            "get": {
                "produces": ["application/json"],
                "summary": "Scheduler load, statistics and cached backend verdict",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}}
            }
        },
        "/stats": {
            "get": {
                "produces": ["application/json"],
                "summary": "Scheduler statistics",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatsResponse"}}}
            }
        },
        "/drain": {
            "post": {
                "produces": ["application/json"],
                "summary": "Reject every queued item",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.DrainResponse"}}}
            }
        },
        "/availability/check": {
            "post": {
                "produces": ["application/json"],
                "summary": "Check backend availability",
                "parameters": [{"type": "boolean", "description": "Re-probe even when the cached verdict is fresh", "name": "force", "in": "query"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.AvailabilityResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.AvailabilityResponse"}}
                }
            }
        },
        "/narrate": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Generate the next narrative beat",
                "parameters": [{"description": "Narrative context and policy", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.NarrativeRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.GenerationResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "504": {"description": "Gateway Timeout", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/closing": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Generate the end-of-game reveal",
                "parameters": [{"description": "Narrative context and policy", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.NarrativeRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.GenerationResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/summarize": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Condense one transcript or a batch",
                "parameters": [{"description": "Text or texts, and policy", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.SummarizeRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.SummarizeResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.NarrativeRequest": {
            "type": "object",
            "properties": {
                "scene": {"type": "string"},
                "players": {"type": "array", "items": {"type": "string"}},
                "clues": {"type": "array", "items": {"type": "string"}},
                "events": {"type": "array", "items": {"type": "string"}},
                "instructions": {"type": "string"},
                "max_tokens": {"type": "integer"},
                "priority": {"type": "integer"},
                "timeout_ms": {"type": "integer"},
                "max_attempts": {"type": "integer"}
            }
        },
        "types.SummarizeRequest": {
            "type": "object",
            "properties": {
                "text": {"type": "string"},
                "texts": {"type": "array", "items": {"type": "string"}},
                "priority": {"type": "integer"},
                "timeout_ms": {"type": "integer"},
                "max_attempts": {"type": "integer"}
            }
        },
        "types.GenerationResponse": {
            "type": "object",
            "properties": {
                "text": {"type": "string"},
                "model": {"type": "string"},
                "backend": {"type": "string"},
                "token_count": {"type": "integer"},
                "elapsed_ms": {"type": "integer"}
            }
        },
        "types.SummarizeResponse": {
            "type": "object",
            "properties": {
                "summary": {"type": "string"},
                "summaries": {"type": "array", "items": {"type": "string"}},
                "elapsed_ms": {"type": "integer"}
            }
        },
        "types.DrainResponse": {
            "type": "object",
            "properties": {"rejected": {"type": "integer"}}
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "code": {"type": "integer"},
                "class": {"type": "string"}
            }
        },
        "types.AvailabilityResponse": {
            "type": "object",
            "properties": {
                "backend": {"type": "string"},
                "model": {"type": "string"},
                "checked": {"type": "boolean"},
                "available": {"type": "boolean"},
                "reason": {"type": "string"},
                "checked_at_unix_ms": {"type": "integer"},
                "ttl_ms": {"type": "integer"}
            }
        },
        "types.LoadResponse": {
            "type": "object",
            "properties": {
                "pending": {"type": "integer"},
                "retrying": {"type": "integer"},
                "in_flight": {"type": "integer"},
                "concurrency_limit": {"type": "integer"}
            }
        },
        "types.StatsResponse": {
            "type": "object",
            "properties": {
                "total_completed": {"type": "integer"},
                "total_succeeded": {"type": "integer"},
                "total_failed": {"type": "integer"},
                "total_retries": {"type": "integer"},
                "average_latency_ms": {"type": "number"},
                "failure_rate": {"type": "number"}
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "state": {"type": "string"},
                "availability": {"$ref": "#/definitions/types.AvailabilityResponse"},
                "load": {"$ref": "#/definitions/types.LoadResponse"},
                "stats": {"$ref": "#/definitions/types.StatsResponse"},
                "uptime_seconds": {"type": "integer"},
                "server_time_unix": {"type": "integer"}
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
	Title:            "mysteryd API",
	Description:      "Admission, scheduling and availability gating for murder-mystery narrative generation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
