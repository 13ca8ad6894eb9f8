package repository

import "github.com/jmoiron/sqlx"

// Store bundles the repositories that share one database handle.  The
// service layer opens transactions on DB and passes them to the Tx
// methods of the individual repositories.
type Store struct {
	DB       *sqlx.DB
	Seats    *SeatRepo
	Catalog  *CatalogRepo
	Orders   *OrderRepo
	Payments *PaymentRepo
	Tickets  *TicketRepo
	ScanLogs *ScanLogRepo
}

// NewStore wires every repository to db.
func NewStore(db *sqlx.DB) *Store {
	return &Store{
		DB:       db,
		Seats:    NewSeatRepo(db),
		Catalog:  NewCatalogRepo(db),
		Orders:   NewOrderRepo(db),
		Payments: NewPaymentRepo(db),
		Tickets:  NewTicketRepo(db),
		ScanLogs: NewScanLogRepo(db),
	}
}
