package model

// Book carries a denormalized AuthorName snapshot; author renames propagate it.
// AvailableCopies is always TotalCopies minus the number of open loans.
type Book struct {
	ID              int64  `json:"id" db:"id"`
	Title           string `json:"title" db:"title"`
	ISBN            string `json:"isbn" db:"isbn"`
	AuthorID        int64  `json:"author_id" db:"author_id"`
	AuthorName      string `json:"author_name" db:"author_name"`
	TotalCopies     int64  `json:"total_copies" db:"total_copies"`
	AvailableCopies int64  `json:"available_copies" db:"available_copies"`
}

type Author struct {
	ID        int64  `json:"id" db:"id"`
	Name      string `json:"name" db:"name"`
	Biography string `json:"biography" db:"biography"`
}
