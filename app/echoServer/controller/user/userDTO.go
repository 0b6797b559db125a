package user

type ChangeRoleReq struct {
	Role string `json:"role" validate:"required,oneof=user librarian admin"`
}
