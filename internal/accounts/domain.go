package accounts

import "time"

// Account is a shared external-service credential the team uses, e.g. a
// design-tool subscription. Listing requires view_accounts; mutating
// requires edit_all.
type Account struct {
	ID          string
	ServiceName string
	Username    string
	Password    string
	Notes       string
	LoginURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
