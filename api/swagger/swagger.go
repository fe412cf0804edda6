package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Grades Dashboard API",
        "description": "Group averages, performance bands and filtered summaries over the course grades spreadsheet",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Gradebook", "description": "Derived gradebook and filtered summaries"},
        {"name": "Charts", "description": "Rendered distribution, history and comparison charts"},
        {"name": "Exports", "description": "CSV and PDF downloads through signed links"},
        {"name": "System", "description": "Instrumentation"}
    ],
    "paths": {
        "/gradebook": {
            "get": {
                "tags": ["Gradebook"],
                "summary": "Extended gradebook",
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer", "minimum": 1},
                    {"name": "page_size", "in": "query", "type": "integer", "minimum": 1, "maximum": 500}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Source does not match the expected columns", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Source unreachable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gradebook/filters": {
            "get": {
                "tags": ["Gradebook"],
                "summary": "Selector options",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gradebook/summary": {
            "get": {
                "tags": ["Gradebook"],
                "summary": "Filter and summarise",
                "parameters": [
                    {"name": "field", "in": "query", "required": true, "type": "string", "enum": ["professor", "major", "section", "attempt", "student", "Profesor", "Carrera", "Sección", "Vez", "Alumno"]},
                    {"name": "value", "in": "query", "required": true, "type": "string"},
                    {"name": "assessment", "in": "query", "type": "string", "description": "Assessment code such as TS1 or EL2; all for a student"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unknown field or assessment", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No record matches the value", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gradebook/refresh": {
            "post": {
                "tags": ["Gradebook"],
                "summary": "Reload the grade source in the background",
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Background refresh not running", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/charts/distribution": {
            "get": {
                "tags": ["Charts"],
                "summary": "Category distribution of one assessment",
                "produces": ["image/png", "image/svg+xml"],
                "parameters": [
                    {"name": "field", "in": "query", "required": true, "type": "string"},
                    {"name": "value", "in": "query", "required": true, "type": "string"},
                    {"name": "assessment", "in": "query", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["png", "svg"]}
                ],
                "responses": {
                    "200": {"description": "Image"}
                }
            }
        },
        "/charts/student": {
            "get": {
                "tags": ["Charts"],
                "summary": "Every presented score of one student",
                "produces": ["image/png", "image/svg+xml"],
                "parameters": [
                    {"name": "value", "in": "query", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["png", "svg"]}
                ],
                "responses": {
                    "200": {"description": "Image"}
                }
            }
        },
        "/charts/scatter": {
            "get": {
                "tags": ["Charts"],
                "summary": "Promedio_General vs Promedio_Evaluaciones by Carrera",
                "produces": ["image/png", "image/svg+xml"],
                "parameters": [
                    {"name": "field", "in": "query", "required": true, "type": "string"},
                    {"name": "value", "in": "query", "required": true, "type": "string"},
                    {"name": "assessment", "in": "query", "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["png", "svg"]}
                ],
                "responses": {
                    "200": {"description": "Image"}
                }
            }
        },
        "/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Export a filtered summary",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download an export",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "404": {"description": "Invalid or expired link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/system/metrics": {
            "get": {
                "tags": ["System"],
                "summary": "Instrumentation snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "ExportRequest": {
            "type": "object",
            "required": ["field", "value", "format"],
            "properties": {
                "field": {"type": "string"},
                "value": {"type": "string"},
                "assessment": {"type": "string"},
                "format": {"type": "string", "enum": ["csv", "pdf"]}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
