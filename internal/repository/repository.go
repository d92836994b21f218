package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository aggregate of all repositories
type Repository struct {
	Tx           Transactor
	Registration RegistrationRepository
	Room         RoomRepository
	Allocation   AllocationRepository
	AuditLog     AuditLogRepository
}

// Transactor runs fn against repositories bound to one database transaction.
// fn returning an error rolls the transaction back.
type Transactor interface {
	Transaction(ctx context.Context, fn func(tx *Repository) error, opts ...*sql.TxOptions) error
}

// NewRepository creates the repository aggregate
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Tx:           &gormTransactor{db: db},
		Registration: NewRegistrationRepo(db),
		Room:         NewRoomRepo(db),
		Allocation:   NewAllocationRepo(db),
		AuditLog:     NewAuditLogRepo(db),
	}
}

type gormTransactor struct {
	db *gorm.DB
}

func (t *gormTransactor) Transaction(ctx context.Context, fn func(tx *Repository) error, opts ...*sql.TxOptions) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	}, opts...)
}

// validID reports whether id fits a uuid column. PostgreSQL rejects any other
// literal with 22P02 instead of matching no rows, so such lookups miss locally.
func validID(id string) bool {
	return uuid.Validate(id) == nil
}
