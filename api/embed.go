// Package api carries the HTTP contract of the separation service.
package api

import _ "embed"

// OpenAPI is the OpenAPI 3 document served under /swagger and used to
// validate incoming requests.
//
//go:embed openapi.json
var OpenAPI []byte
