package enums

// Role is the account-level permission attached to every user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

var roles = set[Role]{RoleUser, RoleAdmin}

func (r Role) String() string { return string(r) }

func (r Role) IsValid() bool { return roles.has(r) }

func ParseRole(value string) (Role, error) { return roles.parse("role", value, false) }
