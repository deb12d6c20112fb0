// Package api handles incoming HTTP requests, request validation, and
// response formatting. It adapts HTTP to the generation service: decoding
// and validating DTOs, calling the service, and mapping domain errors to
// status codes and safe messages.
package api
