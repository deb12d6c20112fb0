// Package generation provides the document rendering boundary. The Renderer
// interface separates the task pipeline from whatever actually produces the
// document; FileRenderer is the default implementation used by the worker.
package generation
