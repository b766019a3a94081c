package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable Engine API",
        "description": "Constraint-based timetable generation, enforcement and export",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Timetables", "description": "Generate, edit, repair and export weekly timetables"},
        {"name": "Jobs", "description": "Asynchronous timetable generation"}
    ],
    "paths": {
        "/timetables": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Get the newest timetable for a roster fingerprint",
                "parameters": [
                    {"name": "fingerprint", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No timetable for fingerprint", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/generate": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Generate a timetable",
                "description": "Solves the roster and stores the result as a new version. Identical rosters are served from the result cache unless fresh is set.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "200": {"description": "Served from cache", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Malformed payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Roster violates the input contract", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "504": {"description": "Request cancelled before the solve finished", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/variants": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Generate variants under several node budgets and keep the best",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateVariantsRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Roster violates the input contract", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/jobs": {
            "post": {
                "tags": ["Jobs"],
                "summary": "Queue a timetable generation",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Queue disabled or full", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/jobs/{id}": {
            "get": {
                "tags": ["Jobs"],
                "summary": "Get generation job status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown job", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/{id}": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Get a stored timetable version",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Timetables"],
                "summary": "Delete a stored timetable version",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/{id}/versions": {
            "get": {
                "tags": ["Timetables"],
                "summary": "List versions sharing the timetable's roster fingerprint",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/{id}/assignments": {
            "put": {
                "tags": ["Timetables"],
                "summary": "Store hand-edited assignments as a new version",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateAssignmentsRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Assignments reference unknown entities", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/{id}/enforce": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Detect and repair constraint violations",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/EnforceTimetableRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/{id}/export": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Download a timetable",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "default": "csv"}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "TimeSlot": {
            "type": "object",
            "properties": {
                "day": {"type": "string", "example": "MONDAY"},
                "start": {"type": "string", "example": "09:00"},
                "end": {"type": "string", "example": "10:00"}
            },
            "required": ["day", "start", "end"]
        },
        "Faculty": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "expertise": {"type": "array", "items": {"type": "string"}},
                "availability": {
                    "type": "object",
                    "description": "Day name to slot IDs, e.g. {\"MONDAY\": [\"MON-0900\"]}. Omit for always available.",
                    "additionalProperties": {"type": "array", "items": {"type": "string"}}
                },
                "maxSessionsPerDay": {"type": "integer"}
            },
            "required": ["id"]
        },
        "Subject": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "hoursPerWeek": {"type": "integer"},
                "qualifiedFaculty": {"type": "array", "items": {"type": "string"}},
                "enrollment": {"type": "integer"},
                "expertise": {"type": "string"}
            },
            "required": ["id", "hoursPerWeek"]
        },
        "Classroom": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "capacity": {"type": "integer"},
                "availability": {
                    "type": "object",
                    "additionalProperties": {"type": "array", "items": {"type": "string"}}
                }
            },
            "required": ["id", "capacity"]
        },
        "Roster": {
            "type": "object",
            "properties": {
                "faculty": {"type": "array", "items": {"$ref": "#/definitions/Faculty"}},
                "subjects": {"type": "array", "items": {"$ref": "#/definitions/Subject"}},
                "classrooms": {"type": "array", "items": {"$ref": "#/definitions/Classroom"}},
                "slots": {"type": "array", "items": {"$ref": "#/definitions/TimeSlot"}},
                "sessionMinutes": {"type": "integer"}
            }
        },
        "SolverOptions": {
            "type": "object",
            "properties": {
                "nodeBudget": {"type": "integer"},
                "repairBudget": {"type": "integer"},
                "workers": {"type": "integer", "maximum": 16}
            }
        },
        "GenerateTimetableRequest": {
            "type": "object",
            "properties": {
                "roster": {"$ref": "#/definitions/Roster"},
                "options": {"$ref": "#/definitions/SolverOptions"},
                "fresh": {"type": "boolean"}
            },
            "required": ["roster"]
        },
        "GenerateVariantsRequest": {
            "type": "object",
            "properties": {
                "roster": {"$ref": "#/definitions/Roster"},
                "nodeBudgets": {"type": "array", "items": {"type": "integer"}, "minItems": 1, "maxItems": 8}
            },
            "required": ["roster", "nodeBudgets"]
        },
        "Assignment": {
            "type": "object",
            "properties": {
                "subjectId": {"type": "string"},
                "session": {"type": "integer"},
                "facultyId": {"type": "string"},
                "classroomId": {"type": "string"},
                "slotId": {"type": "string", "example": "MON-0900"}
            },
            "required": ["subjectId", "facultyId", "classroomId", "slotId"]
        },
        "UpdateAssignmentsRequest": {
            "type": "object",
            "properties": {
                "assignments": {"type": "array", "items": {"$ref": "#/definitions/Assignment"}}
            },
            "required": ["assignments"]
        },
        "EnforceTimetableRequest": {
            "type": "object",
            "properties": {
                "assignments": {"type": "array", "items": {"$ref": "#/definitions/Assignment"}},
                "repairBudget": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
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
