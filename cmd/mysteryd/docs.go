package main

// General API documentation for swaggo. Regenerate docs/ with
// `swag init -g cmd/mysteryd/docs.go`.
//
// @title           mysteryd API
// @version         1.0
// @description     Admission, scheduling and availability gating for murder-mystery narrative generation.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
