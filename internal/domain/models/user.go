package models

// Role определяет роль пользователя на платформе
type Role string

const (
	RoleStudent Role = "student"
	RoleVendor  Role = "vendor"
)

// Valid сообщает, входит ли роль в допустимый набор
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleVendor
}

// User представляет пользователя
type User struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	PassHash    []byte `json:"-"`
	Role        Role   `json:"role"`
	IsApproved  bool   `json:"is_approved"` // имеет значение только для продавцов
	IsSuperuser bool   `json:"is_superuser"`
}

// CanLogin - продавец может войти только после одобрения администратором
func (u *User) CanLogin() bool {
	if u.IsSuperuser {
		return true
	}
	if u.Role == RoleVendor {
		return u.IsApproved
	}
	return true
}

// IsApprovedVendor сообщает, может ли пользователь выполнять операции продавца
func (u *User) IsApprovedVendor() bool {
	return u.Role == RoleVendor && u.IsApproved
}
