// Package types defines the entity structs, status vocabularies, query
// filters, and standard errors shared by the Foreman project-state store
// and its callers.
package types
