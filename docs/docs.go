// Package docs registers the Swagger document served at /swagger.
// Regenerate it from the handler annotations with go generate ./cmd/downloader-api.
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
        "/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["meta"],
                "summary": "Service information",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["meta"],
                "summary": "Health and load",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.healthResp"}}
                }
            }
        },
        "/api/info": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["media"],
                "summary": "Video metadata without downloading",
                "parameters": [
                    {"description": "source url", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httptransport.urlRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.infoResp"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httptransport.apiError"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/httptransport.apiError"}}
                }
            }
        },
        "/api/formats": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["media"],
                "summary": "Available formats",
                "parameters": [
                    {"description": "source url", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httptransport.urlRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.formatsResp"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httptransport.apiError"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/httptransport.apiError"}}
                }
            }
        },
        "/api/playlist/preview": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["media"],
                "summary": "List playlist entries without downloading",
                "parameters": [
                    {"description": "playlist url", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httptransport.urlRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/engine.PlaylistPreview"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httptransport.apiError"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/httptransport.apiError"}}
                }
            }
        },
        "/api/download": {
            "post": {
                "description": "Async (default) returns 202 with a status url; async=false blocks and returns the finished record.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["downloads"],
                "summary": "Start a download",
                "parameters": [
                    {"description": "format_type: best|video_audio|audio|specific_quality", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httptransport.downloadRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/entity.Job"}},
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/httptransport.acceptedResp"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httptransport.apiError"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/httptransport.apiError"}}
                }
            }
        },
        "/api/download/playlist": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["downloads"],
                "summary": "Start a playlist download",
                "parameters": [
                    {"description": "format_type: best|audio", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httptransport.playlistRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/httptransport.acceptedResp"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httptransport.apiError"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/httptransport.apiError"}}
                }
            }
        },
        "/api/status/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["downloads"],
                "summary": "Get download status",
                "parameters": [
                    {"type": "string", "description": "download id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/entity.Job"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httptransport.apiError"}}
                }
            }
        },
        "/api/downloads": {
            "get": {
                "produces": ["application/json"],
                "tags": ["downloads"],
                "summary": "All downloads known to this process",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"$ref": "#/definitions/entity.Job"}}}
                }
            }
        },
        "/api/files/{id}": {
            "get": {
                "produces": ["application/octet-stream"],
                "tags": ["downloads"],
                "summary": "Fetch the downloaded file",
                "parameters": [
                    {"type": "string", "description": "download id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httptransport.apiError"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httptransport.apiError"}}
                }
            }
        },
        "/api/history": {
            "get": {
                "produces": ["application/json"],
                "tags": ["downloads"],
                "summary": "Recently finished downloads from the archive",
                "parameters": [
                    {"type": "integer", "description": "max records (default 50)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.historyResp"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httptransport.apiError"}},
                    "501": {"description": "Not Implemented", "schema": {"$ref": "#/definitions/httptransport.apiError"}}
                }
            }
        }
    },
    "definitions": {
        "engine.Format": {
            "type": "object",
            "properties": {
                "acodec": {"type": "string"},
                "ext": {"type": "string"},
                "filesize": {"type": "integer"},
                "format_id": {"type": "string"},
                "format_note": {"type": "string"},
                "fps": {"type": "number"},
                "quality": {"type": "string"},
                "resolution": {"type": "string"},
                "vcodec": {"type": "string"}
            }
        },
        "engine.PlaylistEntry": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "url": {"type": "string"},
                "video_id": {"type": "string"}
            }
        },
        "engine.PlaylistPreview": {
            "type": "object",
            "properties": {
                "entries": {"type": "array", "items": {"$ref": "#/definitions/engine.PlaylistEntry"}},
                "id": {"type": "string"},
                "url": {"type": "string"}
            }
        },
        "entity.Options": {
            "type": "object",
            "properties": {
                "audio_only": {"type": "boolean"},
                "max_items": {"type": "integer"},
                "merge_video_audio": {"type": "boolean"},
                "quality_ceiling": {"type": "integer"},
                "size_limit_bytes": {"type": "integer"}
            }
        },
        "entity.Progress": {
            "type": "object",
            "properties": {
                "downloaded": {"type": "string"},
                "downloaded_bytes": {"type": "integer"},
                "eta": {"type": "string"},
                "filename": {"type": "string"},
                "fragment_count": {"type": "integer"},
                "fragment_index": {"type": "integer"},
                "percent": {"type": "string"},
                "phase": {"type": "string"},
                "speed": {"type": "string"},
                "total": {"type": "string"},
                "total_bytes": {"type": "integer"}
            }
        },
        "entity.Result": {
            "type": "object",
            "properties": {
                "duration": {"type": "number"},
                "filename": {"type": "string"},
                "playlist_count": {"type": "integer"},
                "playlist_title": {"type": "string"},
                "title": {"type": "string"},
                "view_count": {"type": "integer"}
            }
        },
        "entity.Job": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "error_detail": {"type": "string"},
                "finished_at": {"type": "string"},
                "id": {"type": "string"},
                "kind": {"type": "string", "enum": ["single", "specific_quality", "audio_only", "playlist"]},
                "options": {"$ref": "#/definitions/entity.Options"},
                "progress": {"$ref": "#/definitions/entity.Progress"},
                "result": {"$ref": "#/definitions/entity.Result"},
                "source_url": {"type": "string"},
                "status": {"type": "string", "enum": ["starting", "downloading", "completed", "error"]},
                "updated_at": {"type": "string"}
            }
        },
        "httptransport.acceptedResp": {
            "type": "object",
            "properties": {
                "download_id": {"type": "string"},
                "message": {"type": "string"},
                "status_url": {"type": "string"}
            }
        },
        "httptransport.apiError": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        },
        "httptransport.downloadRequest": {
            "type": "object",
            "properties": {
                "async": {"type": "boolean"},
                "format_type": {"type": "string"},
                "quality": {"type": "string", "example": "720"},
                "size_limit_mb": {"type": "integer"},
                "url": {"type": "string"}
            }
        },
        "httptransport.formatsResp": {
            "type": "object",
            "properties": {
                "formats": {"type": "array", "items": {"$ref": "#/definitions/engine.Format"}},
                "title": {"type": "string"}
            }
        },
        "httptransport.healthResp": {
            "type": "object",
            "properties": {
                "active_downloads": {"type": "integer"},
                "status": {"type": "string"},
                "storage_path": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "httptransport.historyResp": {
            "type": "object",
            "properties": {
                "jobs": {"type": "array", "items": {"$ref": "#/definitions/entity.Job"}}
            }
        },
        "httptransport.infoResp": {
            "type": "object",
            "properties": {
                "age_limited": {"type": "boolean"},
                "categories": {"type": "array", "items": {"type": "string"}},
                "description": {"type": "string"},
                "duration": {"type": "number"},
                "formats": {"type": "array", "items": {"$ref": "#/definitions/engine.Format"}},
                "is_live": {"type": "boolean"},
                "likes": {"type": "integer"},
                "tags": {"type": "array", "items": {"type": "string"}},
                "thumbnail": {"type": "string"},
                "title": {"type": "string"},
                "upload_date": {"type": "string"},
                "uploader": {"type": "string"},
                "views": {"type": "integer"}
            }
        },
        "httptransport.playlistRequest": {
            "type": "object",
            "properties": {
                "format_type": {"type": "string"},
                "max_downloads": {"type": "integer"},
                "url": {"type": "string"}
            }
        },
        "httptransport.urlRequest": {
            "type": "object",
            "properties": {
                "url": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "downloader-api",
	Description:      "Asynchronous media download jobs backed by yt-dlp.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
