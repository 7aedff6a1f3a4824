// Package types defines the Store and Table interfaces, the finance entity
// types, and the standard errors shared by every pocketbook backend.
package types
