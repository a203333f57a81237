// Package swagger holds the OpenAPI document served at /swagger.json.
// It is maintained by hand alongside the handlers in internal/server/endpoints;
// the endpoints tests check that every API route appears here.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "url": "https://github.com/jackzampolin/pdfx"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/endpoints.HealthResponse"}}
                }
            }
        },
        "/status": {
            "get": {
                "description": "Registered LLM providers, configured model and cache size",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Server status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/endpoints.StatusResponse"}}
                }
            }
        },
        "/extract": {
            "post": {
                "description": "Extracts the fields named in extraction_schema from the first page of the uploaded PDF.\nIdentical (document, schema) pairs are answered from the cache.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["extraction"],
                "summary": "Extract fields from a PDF",
                "parameters": [
                    {"type": "string", "description": "Document type hint", "name": "label", "in": "formData"},
                    {"type": "string", "description": "JSON object of field name to description", "name": "extraction_schema", "in": "formData", "required": true},
                    {"type": "file", "description": "PDF document", "name": "pdf", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/extraction.Result"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/endpoints.ErrorResponse"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/endpoints.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/endpoints.ErrorResponse"}}
                }
            }
        },
        "/extract-batch": {
            "post": {
                "description": "Runs each request in order, one at a time. Body is {\"requests\": [...]} or a bare array.\nItems that fail return all-null fields with an error instead of failing the call.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["extraction"],
                "summary": "Extract fields from PDFs on disk",
                "parameters": [
                    {"description": "{requests: [{label, extraction_schema, pdf_path}]}", "name": "request", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/endpoints.BatchResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/endpoints.ErrorResponse"}}
                }
            }
        },
        "/api/cache": {
            "get": {
                "produces": ["application/json"],
                "tags": ["cache"],
                "summary": "Cache statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/cache.Stats"}}
                }
            },
            "delete": {
                "description": "Drops every cached result. Hit and miss counters are kept.",
                "produces": ["application/json"],
                "tags": ["cache"],
                "summary": "Clear the cache",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/endpoints.CacheClearResponse"}}
                }
            }
        },
        "/api/metrics": {
            "get": {
                "produces": ["application/json"],
                "tags": ["metrics"],
                "summary": "List LLM call metrics",
                "parameters": [
                    {"type": "string", "description": "Filter by document label", "name": "label", "in": "query"},
                    {"type": "string", "description": "Filter by provider", "name": "provider", "in": "query"},
                    {"type": "string", "description": "Filter by model", "name": "model", "in": "query"},
                    {"type": "boolean", "description": "Filter by success status", "name": "success", "in": "query"},
                    {"type": "string", "description": "RFC3339 lower bound", "name": "after", "in": "query"},
                    {"type": "string", "description": "RFC3339 upper bound", "name": "before", "in": "query"},
                    {"type": "integer", "description": "Max results (default 100)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/endpoints.MetricsListResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/endpoints.ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["metrics"],
                "summary": "Reset metrics",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/api/metrics/summary": {
            "get": {
                "description": "Request, cache and LLM counters since start, with cost totals",
                "produces": ["application/json"],
                "tags": ["metrics"],
                "summary": "Metrics summary",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/metrics.Summary"}}
                }
            }
        },
        "/api/metrics/detailed": {
            "get": {
                "description": "Latency percentiles, cost breakdowns and error counts over the retained history",
                "produces": ["application/json"],
                "tags": ["metrics"],
                "summary": "Detailed LLM metrics",
                "parameters": [
                    {"type": "string", "description": "Filter by document label", "name": "label", "in": "query"},
                    {"type": "string", "description": "Filter by model", "name": "model", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/endpoints.MetricsDetailedResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/endpoints.ErrorResponse"}}
                }
            }
        },
        "/api/llmcalls": {
            "get": {
                "description": "Get recent LLM call history, newest first, with optional filters",
                "produces": ["application/json"],
                "tags": ["llmcalls"],
                "summary": "List LLM calls",
                "parameters": [
                    {"type": "string", "description": "Filter by document label", "name": "label", "in": "query"},
                    {"type": "string", "description": "Filter by provider", "name": "provider", "in": "query"},
                    {"type": "string", "description": "Filter by model", "name": "model", "in": "query"},
                    {"type": "boolean", "description": "Filter by success status (true or false)", "name": "success", "in": "query"},
                    {"type": "integer", "description": "Max results (default 100)", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "Result offset", "name": "offset", "in": "query"},
                    {"type": "string", "description": "Filter calls after this RFC3339 timestamp", "name": "after", "in": "query"},
                    {"type": "string", "description": "Filter calls before this RFC3339 timestamp", "name": "before", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/endpoints.LLMCallsResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/endpoints.ErrorResponse"}}
                }
            }
        },
        "/api/llmcalls/counts": {
            "get": {
                "description": "Count of retained LLM calls per model, plus failures",
                "produces": ["application/json"],
                "tags": ["llmcalls"],
                "summary": "Get LLM call counts",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/endpoints.LLMCallCountsResponse"}}
                }
            }
        },
        "/api/llmcalls/{id}": {
            "get": {
                "description": "Get a single LLM call by ID, including the raw model response",
                "produces": ["application/json"],
                "tags": ["llmcalls"],
                "summary": "Get an LLM call",
                "parameters": [
                    {"type": "string", "description": "LLM call ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/endpoints.LLMCallResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/endpoints.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "cache.Failure": {
            "type": "object",
            "properties": {
                "kind": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "cache.Stats": {
            "type": "object",
            "properties": {
                "entries": {"type": "integer"},
                "max_entries": {"type": "integer"},
                "hits": {"type": "integer"},
                "misses": {"type": "integer"},
                "evictions": {"type": "integer"}
            }
        },
        "extraction.Result": {
            "type": "object",
            "properties": {
                "extracted_data": {"type": "object", "additionalProperties": {"type": "string", "x-nullable": true}},
                "cost": {"type": "number"},
                "processing_time": {"type": "number"},
                "cache_hit": {"type": "boolean"},
                "failure": {"$ref": "#/definitions/cache.Failure"}
            }
        },
        "endpoints.BatchItemResponse": {
            "type": "object",
            "properties": {
                "extracted_data": {"type": "object", "additionalProperties": {"type": "string", "x-nullable": true}},
                "cost": {"type": "number"},
                "processing_time": {"type": "number"},
                "cache_hit": {"type": "boolean"},
                "failure": {"$ref": "#/definitions/cache.Failure"},
                "label": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "endpoints.BatchResponse": {
            "type": "object",
            "properties": {
                "results": {"type": "array", "items": {"$ref": "#/definitions/endpoints.BatchItemResponse"}},
                "total_cost": {"type": "number"},
                "total_processing_time": {"type": "number"}
            }
        },
        "endpoints.CacheClearResponse": {
            "type": "object",
            "properties": {
                "cleared": {"type": "integer"}
            }
        },
        "endpoints.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        },
        "endpoints.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"}
            }
        },
        "endpoints.StatusResponse": {
            "type": "object",
            "properties": {
                "server": {"type": "string"},
                "providers": {"type": "array", "items": {"type": "string"}},
                "model": {"type": "string"},
                "config_file": {"type": "string"},
                "cache_entries": {"type": "integer"}
            }
        },
        "endpoints.LLMCallCountsResponse": {
            "type": "object",
            "properties": {
                "counts": {"type": "object", "additionalProperties": {"type": "integer"}}
            }
        },
        "endpoints.LLMCallResponse": {
            "type": "object",
            "properties": {
                "call": {"$ref": "#/definitions/llmcall.Call"},
                "error": {"type": "string"}
            }
        },
        "endpoints.LLMCallsResponse": {
            "type": "object",
            "properties": {
                "calls": {"type": "array", "items": {"$ref": "#/definitions/llmcall.Call"}},
                "total": {"type": "integer"}
            }
        },
        "endpoints.MetricsDetailedResponse": {
            "type": "object",
            "properties": {
                "stats": {"$ref": "#/definitions/metrics.DetailedStats"},
                "cost_by_model": {"type": "object", "additionalProperties": {"type": "number"}},
                "cost_by_label": {"type": "object", "additionalProperties": {"type": "number"}},
                "errors_by_type": {"type": "object", "additionalProperties": {"type": "integer"}}
            }
        },
        "endpoints.MetricsListResponse": {
            "type": "object",
            "properties": {
                "metrics": {"type": "array", "items": {"$ref": "#/definitions/metrics.Metric"}},
                "total": {"type": "integer"}
            }
        },
        "llmcall.Call": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "timestamp": {"type": "string"},
                "latency_ms": {"type": "integer"},
                "label": {"type": "string"},
                "cache_key": {"type": "string"},
                "provider": {"type": "string"},
                "model": {"type": "string"},
                "input_tokens": {"type": "integer"},
                "output_tokens": {"type": "integer"},
                "cost_usd": {"type": "number"},
                "response": {"type": "string"},
                "success": {"type": "boolean"},
                "error_type": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "metrics.DetailedStats": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "success_count": {"type": "integer"},
                "error_count": {"type": "integer"},
                "total_cost_usd": {"type": "number"},
                "latency_p50": {"type": "number"},
                "latency_p95": {"type": "number"},
                "latency_p99": {"type": "number"},
                "latency_avg": {"type": "number"},
                "latency_min": {"type": "number"},
                "latency_max": {"type": "number"},
                "total_prompt_tokens": {"type": "integer"},
                "total_completion_tokens": {"type": "integer"}
            }
        },
        "metrics.Metric": {
            "type": "object",
            "properties": {
                "label": {"type": "string"},
                "cache_key": {"type": "string"},
                "provider": {"type": "string"},
                "model": {"type": "string"},
                "cost_usd": {"type": "number"},
                "prompt_tokens": {"type": "integer"},
                "completion_tokens": {"type": "integer"},
                "total_tokens": {"type": "integer"},
                "execution_seconds": {"type": "number"},
                "success": {"type": "boolean"},
                "error_type": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "metrics.Summary": {
            "type": "object",
            "properties": {
                "started_at": {"type": "string"},
                "uptime_seconds": {"type": "number"},
                "requests": {"type": "integer"},
                "cache_hits": {"type": "integer"},
                "cache_misses": {"type": "integer"},
                "no_text": {"type": "integer"},
                "hit_rate": {"type": "number"},
                "avg_processing_seconds": {"type": "number"},
                "llm_calls": {"type": "integer"},
                "llm_failures": {"type": "integer"},
                "input_tokens": {"type": "integer"},
                "output_tokens": {"type": "integer"},
                "total_cost_usd": {"type": "number"},
                "avg_cost_per_call": {"type": "number"},
                "avg_input_tokens": {"type": "number"},
                "avg_output_tokens": {"type": "number"},
                "latency": {"$ref": "#/definitions/metrics.DetailedStats"},
                "cost_by_model": {"type": "object", "additionalProperties": {"type": "number"}},
                "cost_by_label": {"type": "object", "additionalProperties": {"type": "number"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8000",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "pdfx API",
	Description:      "Extract structured fields from PDFs with an LLM, with content-addressed caching.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
