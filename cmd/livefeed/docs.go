package main

// General API documentation for swaggo. Regenerate with
// `swag init -g cmd/livefeed/docs.go -o internal/httpapi/docs`.
//
// @title           livefeed API
// @version         1.0
// @description     Bridge API for live process and network telemetry over node WebSocket channels.
//
// @contact.name   livefeed maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
