package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Enrollments Service API",
        "description": "Enrollment orchestration across the student directory and course catalog",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Enrollments", "description": "Denormalised enrollments built from remote student and course records"},
        {"name": "Students", "description": "Student directory proxy and bulk fetch"},
        {"name": "Metrics", "description": "Health, readiness and instrumentation"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Metrics"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Metrics"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unreachable"}
                }
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": ["Metrics"],
                "summary": "Instrumentation snapshot",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/enrollments": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List enrollments",
                "description": "Streams server-sent events when the client accepts text/event-stream.",
                "produces": ["application/json", "text/event-stream"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Enrollments"],
                "summary": "Create enrollment",
                "description": "Fetches the student, then the course, and stores a denormalised enrollment.",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/EnrollmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student or course not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Invalid payload or remote id", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Upstream or persistence failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/enrollments/export": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "Export enrollments",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"in": "query", "name": "format", "type": "string", "enum": ["csv", "pdf"], "default": "csv"}
                ],
                "responses": {
                    "200": {"description": "Attachment", "schema": {"type": "file"}},
                    "422": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/enrollments/{enrollmentId}": {
            "parameters": [
                {"in": "path", "name": "enrollmentId", "type": "string", "required": true, "minLength": 36, "maxLength": 36}
            ],
            "get": {
                "tags": ["Enrollments"],
                "summary": "Get enrollment",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Enrollment not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Malformed id", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Enrollments"],
                "summary": "Update enrollment",
                "description": "Re-validates the course; student fields are stored as given.",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/EnrollmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Enrollment or course not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Invalid payload or id", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Enrollments"],
                "summary": "Delete enrollment",
                "description": "Returns the enrollment as it was before deletion.",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Enrollment not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Malformed id", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/students/bulk": {
            "get": {
                "tags": ["Students"],
                "summary": "Bulk fetch students by row index",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "query", "name": "strategy", "type": "string", "enum": ["sequential", "unbounded", "bounded"], "default": "bounded"},
                    {"in": "query", "name": "count", "type": "integer", "minimum": 1, "maximum": 1000},
                    {"in": "query", "name": "poolSize", "type": "integer", "minimum": 1}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Invalid strategy or count", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/students/{studentId}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get student from the student directory",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "studentId", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "EnrollmentRequest": {
            "type": "object",
            "required": ["studentId", "courseId"],
            "properties": {
                "enrollmentYear": {"type": "integer"},
                "semester": {"type": "string", "enum": ["FALL", "SPRING", "SUMMER"]},
                "studentId": {"type": "string"},
                "studentFirstName": {"type": "string"},
                "studentLastName": {"type": "string"},
                "courseId": {"type": "string"},
                "courseNumber": {"type": "string"},
                "courseName": {"type": "string"}
            }
        },
        "Enrollment": {
            "type": "object",
            "properties": {
                "enrollmentId": {"type": "string"},
                "enrollmentYear": {"type": "integer"},
                "semester": {"type": "string", "enum": ["FALL", "SPRING", "SUMMER"]},
                "studentId": {"type": "string"},
                "studentFirstName": {"type": "string"},
                "studentLastName": {"type": "string"},
                "courseId": {"type": "string"},
                "courseNumber": {"type": "string"},
                "courseName": {"type": "string"}
            }
        },
        "Student": {
            "type": "object",
            "properties": {
                "studentId": {"type": "string"},
                "firstName": {"type": "string"},
                "lastName": {"type": "string"},
                "program": {"type": "string"}
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
