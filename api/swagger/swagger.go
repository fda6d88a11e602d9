package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Enrollment API",
        "description": "Course admission and waitlist ordering service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Classes", "description": "Class catalog and roster views"},
        {"name": "Enrollments", "description": "Admission requests and drops"},
        {"name": "Waitlists", "description": "Waitlist views and removal"},
        {"name": "Subscriptions", "description": "Notification opt-ins"},
        {"name": "Admin", "description": "Registrar controls"}
    ],
    "paths": {
        "/classes": {
            "get": {
                "tags": ["Classes"],
                "summary": "List classes with live seat and waitlist occupancy",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Classes"],
                "summary": "Create class",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateClassRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already exists", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{class_id}": {
            "delete": {
                "tags": ["Classes"],
                "summary": "Delete class",
                "parameters": [
                    {"name": "class_id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{class_id}/capacity": {
            "put": {
                "tags": ["Classes"],
                "summary": "Update class capacity",
                "parameters": [
                    {"name": "class_id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object", "properties": {"capacity": {"type": "integer"}}}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{class_id}/instructor": {
            "put": {
                "tags": ["Classes"],
                "summary": "Reassign class instructor",
                "parameters": [
                    {"name": "class_id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object", "properties": {"instructor_id": {"type": "integer"}}}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{class_id}/enrollments/{student_id}": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Request enrollment in a class",
                "parameters": [
                    {"name": "class_id", "in": "path", "required": true, "type": "integer"},
                    {"name": "student_id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Decision", "schema": {"$ref": "#/definitions/EnrollmentOutcome"}},
                    "404": {"description": "Student or class not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already enrolled or waitlisted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Enrollments"],
                "summary": "Drop an enrollment",
                "parameters": [
                    {"name": "class_id", "in": "path", "required": true, "type": "integer"},
                    {"name": "student_id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Dropped", "schema": {"$ref": "#/definitions/EnrollmentOutcome"}},
                    "409": {"description": "Not enrolled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{class_id}/waitlist": {
            "get": {
                "tags": ["Waitlists"],
                "summary": "List a class waitlist in rank order",
                "parameters": [
                    {"name": "class_id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Instructor not assigned", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{class_id}/waitlist/{student_id}": {
            "delete": {
                "tags": ["Waitlists"],
                "summary": "Remove a student from a class waitlist",
                "parameters": [
                    {"name": "class_id", "in": "path", "required": true, "type": "integer"},
                    {"name": "student_id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "Removed"},
                    "404": {"description": "Not on waitlist", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{class_id}/roster/{student_id}": {
            "delete": {
                "tags": ["Enrollments"],
                "summary": "Drop a student from a class the instructor teaches",
                "parameters": [
                    {"name": "class_id", "in": "path", "required": true, "type": "integer"},
                    {"name": "student_id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not the class instructor", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Not enrolled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{class_id}/roster/enrolled": {
            "get": {
                "tags": ["Classes"],
                "summary": "List enrolled students",
                "parameters": [
                    {"name": "class_id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{class_id}/roster/dropped": {
            "get": {
                "tags": ["Classes"],
                "summary": "List students who dropped",
                "parameters": [
                    {"name": "class_id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{class_id}/roster/export": {
            "get": {
                "tags": ["Classes"],
                "summary": "Download a class roster as CSV or PDF",
                "parameters": [
                    {"name": "class_id", "in": "path", "required": true, "type": "integer"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Document"}
                }
            }
        },
        "/students/{student_id}/waitlists": {
            "get": {
                "tags": ["Waitlists"],
                "summary": "List a student's waitlist positions",
                "parameters": [
                    {"name": "student_id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No waitlist entries", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{student_id}/subscriptions": {
            "get": {
                "tags": ["Subscriptions"],
                "summary": "List a student's subscriptions",
                "parameters": [
                    {"name": "student_id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Subscriptions"],
                "summary": "Subscribe to enrollment notifications",
                "parameters": [
                    {"name": "student_id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubscribeRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already subscribed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{student_id}/subscriptions/{class_id}": {
            "delete": {
                "tags": ["Subscriptions"],
                "summary": "Remove a subscription",
                "parameters": [
                    {"name": "student_id", "in": "path", "required": true, "type": "integer"},
                    {"name": "class_id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "Removed"}
                }
            }
        },
        "/admin/freeze": {
            "get": {
                "tags": ["Admin"],
                "summary": "Read the enrollment freeze flag",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Admin"],
                "summary": "Toggle the enrollment freeze flag",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object", "properties": {"frozen": {"type": "boolean"}}}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/metrics": {
            "get": {
                "tags": ["Admin"],
                "summary": "Aggregated activity snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateClassRequest": {
            "type": "object",
            "required": ["id", "name", "course_code", "section_number", "department", "instructor_id", "capacity"],
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "course_code": {"type": "string"},
                "section_number": {"type": "integer"},
                "department": {"type": "string"},
                "instructor_id": {"type": "integer"},
                "capacity": {"type": "integer"}
            }
        },
        "SubscribeRequest": {
            "type": "object",
            "properties": {
                "class_id": {"type": "integer"},
                "email": {"type": "string"},
                "webhook_url": {"type": "string"}
            }
        },
        "EnrollmentOutcome": {
            "type": "object",
            "properties": {
                "decision": {"type": "string", "enum": ["ADMITTED", "WAITLISTED", "REJECTED", "DROPPED"]},
                "rank": {"type": "integer"},
                "reason": {"type": "string"},
                "message": {"type": "string"}
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
