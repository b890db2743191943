package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the wiki API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(swaggerHTML))
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>gowiki API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "gowiki", "version": "v1" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } }
  },
  "paths": {
    "/api/v1/pages": {
      "get": { "summary": "List pages", "responses": { "200": { "description": "pages sorted by name" } } }
    },
    "/api/v1/pages/{name}": {
      "get": { "summary": "Get a page with its rendered HTML", "responses": { "200": { "description": "page" }, "404": { "description": "page does not exist" } } },
      "put": {
        "summary": "Save a new revision",
        "security": [{ "bearer": [] }],
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["content"],"properties":{"content":{"type":"string"},"comment":{"type":"string"}}}}}},
        "responses": { "200": { "description": "updated" }, "201": { "description": "created" }, "400": { "description": "invalid name" }, "401": { "description": "missing or invalid token" }, "409": { "description": "reserved name" } }
      }
    },
    "/api/v1/pages/{name}/history": {
      "get": { "summary": "Revision history, newest first", "responses": { "200": { "description": "revisions" } } }
    },
    "/api/v1/pages/{name}/revisions/{id}": {
      "get": { "summary": "One revision with content", "responses": { "200": { "description": "revision" }, "404": { "description": "no such revision" } } }
    },
    "/api/v1/pages/{name}/diff": {
      "get": { "summary": "Side-by-side diff of revisions v1 and v2", "parameters": [{"name":"v1","in":"query","required":true,"schema":{"type":"string"}},{"name":"v2","in":"query","required":true,"schema":{"type":"string"}}], "responses": { "200": { "description": "diff rows and html" }, "404": { "description": "no such revision" } } }
    },
    "/api/v1/pages/{name}/attachments": {
      "get": { "summary": "List attachments", "responses": { "200": { "description": "attachments" }, "503": { "description": "storage not configured" } } },
      "post": { "summary": "Upload an attachment", "security": [{ "bearer": [] }], "requestBody": { "content": { "multipart/form-data": { "schema": {"type":"object","properties":{"file":{"type":"string","format":"binary"}}}}}}, "responses": { "201": { "description": "stored" }, "503": { "description": "storage not configured" } } }
    },
    "/api/v1/pages/{name}/attachments/{filename}": {
      "get": { "summary": "Redirect to a presigned download URL", "responses": { "302": { "description": "redirect" }, "404": { "description": "no such attachment" } } }
    },
    "/api/v1/recent": {
      "get": { "summary": "Recent changes across all pages", "responses": { "200": { "description": "revisions" } } }
    },
    "/api/v1/search": {
      "get": { "summary": "Search page names and text", "parameters": [{"name":"q","in":"query","required":true,"schema":{"type":"string"}}], "responses": { "200": { "description": "results" }, "400": { "description": "empty query" } } }
    },
    "/api/v1/me": {
      "get": { "summary": "Editor identity from the bearer token", "security": [{ "bearer": [] }], "responses": { "200": { "description": "editor and profile" }, "401": { "description": "missing or invalid token" } } }
    },
    "/feeds/recent.atom": { "get": { "summary": "Recent changes Atom feed", "responses": { "200": { "description": "feed" } } } },
    "/feeds/recent.rss": { "get": { "summary": "Recent changes RSS feed", "responses": { "200": { "description": "feed" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
