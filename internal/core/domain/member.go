package domain

import "time"

// Role is the access level assigned to a provisioned account.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleContador Role = "contador"
	RoleOperador Role = "operador"
	RoleSocio    Role = "socio"
)

// DefaultRole is forced onto public registrations; only privileged callers
// may assign anything else.
const DefaultRole = RoleSocio

// Roles lists every assignable role in priority order.
var Roles = []Role{RoleAdmin, RoleContador, RoleOperador, RoleSocio}

var roleLabels = map[Role]string{
	RoleAdmin:    "Administrador",
	RoleContador: "Contador",
	RoleOperador: "Operador",
	RoleSocio:    "Socio",
}

var rolePriority = map[Role]int{
	RoleAdmin:    4,
	RoleContador: 3,
	RoleOperador: 2,
	RoleSocio:    1,
}

// Valid reports whether the role belongs to the known set.
func (r Role) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}

// Label returns the display name of the role.
func (r Role) Label() string {
	if label, ok := roleLabels[r]; ok {
		return label
	}
	return string(r)
}

// Priority orders roles by trust level; higher outranks lower.
func (r Role) Priority() int {
	return rolePriority[r]
}

// Action is a permission checked against a role.
type Action string

const (
	ActionManagePayments Action = "manage_payments"
	ActionManageMembers  Action = "manage_members"
	ActionReadReports    Action = "read_reports"
)

// Can evaluates the role policy for an action.
func Can(role Role, action Action) bool {
	switch action {
	case ActionManagePayments:
		return role == RoleAdmin || role == RoleContador
	case ActionManageMembers:
		return role == RoleAdmin || role == RoleOperador
	case ActionReadReports:
		return role != RoleSocio
	default:
		return false
	}
}

// Member is the domain profile linked 1:1 with an identity-provider account.
type Member struct {
	ID        string
	FullName  string
	Document  string
	Email     string
	Phone     *string
	Role      Role
	Active    bool
	CreatedAt time.Time
}

// Due is a membership fee period for one member.
type Due struct {
	ID     string
	Period string
	Amount float64
	Status string
}

// Payment is a settled payment against a due.
type Payment struct {
	ID       string
	MemberID string
	Amount   float64
	PaidAt   time.Time
}
