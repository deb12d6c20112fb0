// Package domain contains the core business entities, value objects, and
// errors of the document generation pipeline. It represents the heart of the
// system, independent of any specific infrastructure or delivery mechanism.
package domain
