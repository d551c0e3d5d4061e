// Package memory holds process-local repositories for users, offices and reservations.
// They share one Store so that joins (owner names, active reservation counts) stay consistent.
package memory

import (
	"sync"
	"time"
)

// Store is the shared state behind the in-memory repositories.
type Store struct {
	mu sync.RWMutex

	users        map[string]*userRow
	offices      map[int64]*officeRow
	reservations map[int64]*reservationRow

	nextOfficeID      int64
	nextReservationID int64

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:        make(map[string]*userRow),
		offices:      make(map[int64]*officeRow),
		reservations: make(map[int64]*reservationRow),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Repos returns the three repositories backed by s.
func (s *Store) Repos() (*UserRepo, *OfficeRepo, *ReservationRepo) {
	return &UserRepo{s: s}, &OfficeRepo{s: s}, &ReservationRepo{s: s}
}
