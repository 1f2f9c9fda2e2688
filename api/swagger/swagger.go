package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Practice Scheduling API",
        "description": "Appointment availability and booking engine",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Availability", "description": "Bookable slot resolution"},
        {"name": "Appointments", "description": "Booking lifecycle"},
        {"name": "Calendar", "description": "Calendar index queries"},
        {"name": "Patterns", "description": "Recurring availability templates"},
        {"name": "Exceptions", "description": "Date-specific overrides"},
        {"name": "Export", "description": "Day sheet rendering"}
    ],
    "paths": {
        "/availability": {
            "get": {
                "tags": ["Availability"],
                "summary": "Resolve bookable slots for one practitioner and date",
                "parameters": [
                    {"name": "practitionerId", "in": "query", "required": true, "type": "string", "description": "Practitioner id or 'any'"},
                    {"name": "date", "in": "query", "required": true, "type": "string", "format": "date"},
                    {"name": "duration", "in": "query", "type": "integer", "description": "Slot duration in minutes"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid duration"}
                }
            }
        },
        "/appointments": {
            "post": {
                "tags": ["Appointments"],
                "summary": "Book an appointment",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BookAppointmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot conflict"}
                }
            }
        },
        "/appointments/{id}": {
            "get": {
                "tags": ["Appointments"],
                "summary": "Get appointment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/appointments/{id}/move": {
            "patch": {
                "tags": ["Appointments"],
                "summary": "Move an appointment to a new time",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MoveAppointmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot conflict"}
                }
            }
        },
        "/appointments/{id}/cancel": {
            "post": {
                "tags": ["Appointments"],
                "summary": "Cancel an appointment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/appointments/{id}/check-conflict": {
            "post": {
                "tags": ["Appointments"],
                "summary": "Probe a time range for conflicts without booking",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MoveAppointmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calendar": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Query calendar entries for a date range",
                "parameters": [
                    {"name": "startDate", "in": "query", "required": true, "type": "string", "format": "date"},
                    {"name": "endDate", "in": "query", "required": true, "type": "string", "format": "date"},
                    {"name": "practitionerIds", "in": "query", "type": "string", "description": "Comma separated"},
                    {"name": "statuses", "in": "query", "type": "string", "description": "Comma separated"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/patterns": {
            "get": {
                "tags": ["Patterns"],
                "summary": "List availability patterns",
                "parameters": [
                    {"name": "practitionerId", "in": "query", "type": "string"},
                    {"name": "includeOrgWide", "in": "query", "type": "boolean"},
                    {"name": "activeOnly", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Patterns"],
                "summary": "Create availability pattern",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PatternRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/patterns/{id}": {
            "get": {
                "tags": ["Patterns"],
                "summary": "Get pattern",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Patterns"],
                "summary": "Update pattern",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PatternRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Patterns"],
                "summary": "Deactivate pattern",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/exceptions": {
            "get": {
                "tags": ["Exceptions"],
                "summary": "List availability exceptions",
                "parameters": [
                    {"name": "practitionerId", "in": "query", "type": "string"},
                    {"name": "includeOrgWide", "in": "query", "type": "boolean"},
                    {"name": "from", "in": "query", "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Exceptions"],
                "summary": "Create availability exception",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExceptionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exceptions/{id}": {
            "delete": {
                "tags": ["Exceptions"],
                "summary": "Delete exception",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/export/day-sheet": {
            "get": {
                "tags": ["Export"],
                "summary": "Download a practitioner day sheet",
                "parameters": [
                    {"name": "practitionerId", "in": "query", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "required": true, "type": "string", "format": "date"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        },
        "/admin/calendar-index/rebuild": {
            "post": {
                "tags": ["Calendar"],
                "summary": "Rebuild calendar index rows for a date range",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RebuildIndexRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "BookAppointmentRequest": {
            "type": "object",
            "properties": {
                "practitioner_id": {"type": "string"},
                "patient_id": {"type": "string"},
                "title": {"type": "string"},
                "appointment_type": {"type": "string"},
                "location": {"type": "string"},
                "notes": {"type": "string"},
                "start_time": {"type": "string", "format": "date-time"},
                "duration_minutes": {"type": "integer"}
            },
            "required": ["practitioner_id", "patient_id", "title", "start_time", "duration_minutes"]
        },
        "MoveAppointmentRequest": {
            "type": "object",
            "properties": {
                "start_time": {"type": "string", "format": "date-time"},
                "duration_minutes": {"type": "integer"}
            },
            "required": ["start_time"]
        },
        "PatternRequest": {
            "type": "object",
            "properties": {
                "practitioner_id": {"type": "string"},
                "title": {"type": "string"},
                "frequency": {"type": "string", "enum": ["daily", "weekdays", "weekly", "custom"]},
                "weekdays": {"type": "string"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "valid_from": {"type": "string", "format": "date"},
                "valid_until": {"type": "string", "format": "date"},
                "active": {"type": "boolean"}
            },
            "required": ["title", "frequency", "start_time", "end_time"]
        },
        "ExceptionRequest": {
            "type": "object",
            "properties": {
                "practitioner_id": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "kind": {"type": "string", "enum": ["blocked", "holiday", "vacation"]},
                "all_day": {"type": "boolean"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "reason": {"type": "string"}
            },
            "required": ["date", "kind"]
        },
        "RebuildIndexRequest": {
            "type": "object",
            "properties": {
                "start_date": {"type": "string", "format": "date"},
                "end_date": {"type": "string", "format": "date"}
            },
            "required": ["start_date", "end_date"]
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
