// Package docs registers the OpenAPI document served by the Swagger UI.
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
        "/health": {
            "get": {
                "description": "Returns the health status of the API and the Z-Wave controller",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "Service is healthy", "schema": {"$ref": "#/definitions/types.HealthResponse"}},
                    "503": {"description": "Service is degraded", "schema": {"$ref": "#/definitions/types.HealthResponse"}}
                }
            }
        },
        "/nodes": {
            "get": {
                "description": "Returns every node that has list values",
                "produces": ["application/json"],
                "tags": ["nodes"],
                "summary": "List nodes",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ListNodesResponse"}}
                }
            }
        },
        "/nodes/{node}/values": {
            "get": {
                "description": "Returns the list values of a node ordered by command class, instance and index",
                "produces": ["application/json"],
                "tags": ["nodes"],
                "summary": "List node values",
                "parameters": [
                    {"type": "integer", "description": "Node ID", "name": "node", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ListValuesResponse"}},
                    "400": {"description": "Invalid node", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "404": {"description": "Node not found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/values/events": {
            "get": {
                "description": "Server-Sent Events stream of values being added, removed, or confirmed by their devices",
                "produces": ["text/event-stream"],
                "tags": ["values"],
                "summary": "Subscribe to value events",
                "responses": {
                    "200": {"description": "SSE event stream", "schema": {"type": "string"}}
                }
            }
        },
        "/values/{id}": {
            "get": {
                "description": "Returns the items, confirmed selection and pending selection of a list value",
                "produces": ["application/json"],
                "tags": ["values"],
                "summary": "Get value",
                "parameters": [
                    {"type": "string", "description": "Value ID (node-class-instance-index)", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ValueResponse"}},
                    "400": {"description": "Invalid value ID", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "404": {"description": "Value not found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/values/{id}/selection": {
            "post": {
                "description": "Requests that a list value change to the item with the given label or code. The confirmed selection only changes once the device reports it.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["values"],
                "summary": "Select an item",
                "parameters": [
                    {"type": "string", "description": "Value ID (node-class-instance-index)", "name": "id", "in": "path", "required": true},
                    {"description": "Item to select", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.SelectionRequest"}}
                ],
                "responses": {
                    "200": {"description": "Item already selected", "schema": {"$ref": "#/definitions/types.SelectionResponse"}},
                    "202": {"description": "Selection sent to the device", "schema": {"$ref": "#/definitions/types.SelectionResponse"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "404": {"description": "Value not found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "409": {"description": "Value is read-only", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "502": {"description": "Controller rejected the request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Controller disconnected", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "504": {"description": "Request timed out", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/values/{id}/refresh": {
            "post": {
                "description": "Asks the device to report the current state of a value",
                "produces": ["application/json"],
                "tags": ["values"],
                "summary": "Refresh a value",
                "parameters": [
                    {"type": "string", "description": "Value ID (node-class-instance-index)", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/types.RefreshResponse"}},
                    "400": {"description": "Invalid value ID or unsupported command class", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "404": {"description": "Value not found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Controller disconnected", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "504": {"description": "Request timed out", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/cache": {
            "get": {
                "description": "Returns every value as a Network XML document that can be imported on startup",
                "produces": ["application/xml"],
                "tags": ["cache"],
                "summary": "Export value cache",
                "responses": {
                    "200": {"description": "Cache document", "schema": {"type": "string"}}
                }
            }
        },
        "/cache/save": {
            "post": {
                "description": "Persists the current values of every node to the database",
                "produces": ["application/json"],
                "tags": ["cache"],
                "summary": "Save value cache",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.SaveCacheResponse"}},
                    "500": {"description": "Database error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "No cache store configured", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "device.Node": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "protocol": {"type": "string"},
                "values": {"type": "integer"}
            }
        },
        "value.Item": {
            "type": "object",
            "properties": {
                "label": {"type": "string"},
                "value": {"type": "integer"}
            }
        },
        "device.ListValue": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "label": {"type": "string"},
                "genre": {"type": "string"},
                "units": {"type": "string"},
                "help": {"type": "string"},
                "read_only": {"type": "boolean"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/value.Item"}},
                "index": {"type": "integer"},
                "pending": {"type": "integer"},
                "selected": {"$ref": "#/definitions/value.Item"},
                "selection_schema": {"type": "object"}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "types.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "controller": {"type": "string"},
                "home_id": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "types.ListNodesResponse": {
            "type": "object",
            "properties": {
                "nodes": {"type": "array", "items": {"$ref": "#/definitions/device.Node"}},
                "count": {"type": "integer"}
            }
        },
        "types.ListValuesResponse": {
            "type": "object",
            "properties": {
                "node": {"type": "integer"},
                "values": {"type": "array", "items": {"$ref": "#/definitions/device.ListValue"}},
                "count": {"type": "integer"}
            }
        },
        "types.ValueResponse": {
            "type": "object",
            "properties": {
                "value": {"$ref": "#/definitions/device.ListValue"}
            }
        },
        "types.SelectionRequest": {
            "type": "object",
            "properties": {
                "label": {"type": "string"},
                "code": {"type": "integer"}
            }
        },
        "types.SelectionResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "value": {"$ref": "#/definitions/device.ListValue"},
                "timestamp": {"type": "string"}
            }
        },
        "types.RefreshResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "value": {"type": "string"}
            }
        },
        "types.SaveCacheResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "nodes": {"type": "integer"},
                "timestamp": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Homai Z-Wave API",
	Description:      "REST API for selecting Z-Wave list values and watching device confirmations",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
