// Package storage provides utilities shared across storage adapter
// implementations: sentinel errors and offset pagination.
//
// Storage adapters (memory, postgres) implement both users.Store and
// tasks.Store. The interfaces live with the packages that consume them.
package storage
