package author

type AuthorReq struct {
	Name      string `json:"name" validate:"required"`
	Biography string `json:"biography"`
}
