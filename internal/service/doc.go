// Package service contains the application-level use cases of the document
// pipeline. GenerationService is the intake side: it validates a generation
// request against the user registry, enqueues the task, and records the
// request in the generation log. It also answers status and log queries.
//
// Services receive their stores through constructor injection and translate
// store errors into the domain sentinels the API layer maps to HTTP.
package service
