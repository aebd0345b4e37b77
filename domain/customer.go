package domain

// Customer is identified by the (name, phone) pair. Two records with
// the same name but different phones are distinct customers.
type Customer struct {
	ID    int64   `db:"id" json:"id"`
	Name  string  `db:"name" json:"name"`
	Phone *string `db:"phone" json:"phone,omitempty"`
}
