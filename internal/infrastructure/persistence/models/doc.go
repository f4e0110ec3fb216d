// Package models holds the GORM rows behind the reconcile tables. Domain
// reports never carry ORM tags; conversion happens here.
package models
