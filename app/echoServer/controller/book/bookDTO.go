package book

type CreateBookReq struct {
	Title       string `json:"title" validate:"required"`
	ISBN        string `json:"isbn" validate:"required"`
	AuthorName  string `json:"author_name" validate:"required"`
	TotalCopies int64  `json:"total_copies" validate:"gte=0"`
}

type EditBookReq struct {
	Title       string `json:"title" validate:"required"`
	ISBN        string `json:"isbn" validate:"required"`
	TotalCopies int64  `json:"total_copies" validate:"gte=0"`
}
