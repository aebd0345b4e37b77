package domain

type Supplier struct {
	ID      int64  `db:"id" json:"id"`
	Name    string `db:"name" json:"name"`
	Contact string `db:"contact" json:"contact"`
}
