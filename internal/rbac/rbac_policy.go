package rbac

const (
	RoleEmployee = "EMPLOYEE"
	RoleManager  = "MANAGER"
	RoleDirector = "DIRECTOR"
	RoleHR       = "HR"
)

// DefaultInheritance seeds role_inheritance: every approver role can do what
// an employee can, HR and directors can do what a manager can.
var DefaultInheritance = []RoleInheritanceRow{
	{Role: RoleManager, Parent: RoleEmployee},
	{Role: RoleDirector, Parent: RoleManager},
	{Role: RoleHR, Parent: RoleManager},
}

var DefaultPermissions = []RolePermissionRow{
	{Role: RoleEmployee, Resource: "leave", Action: "create"},
	{Role: RoleEmployee, Resource: "leave", Action: "read_own"},
	{Role: RoleEmployee, Resource: "leave", Action: "cancel"},
	{Role: RoleEmployee, Resource: "balance", Action: "read_own"},
	{Role: RoleEmployee, Resource: "leavetype", Action: "read"},
	{Role: RoleEmployee, Resource: "holiday", Action: "read"},
	{Role: RoleEmployee, Resource: "employee", Action: "profile"},
	{Role: RoleEmployee, Resource: "employee", Action: "search"},

	{Role: RoleManager, Resource: "approval", Action: "read"},
	{Role: RoleManager, Resource: "approval", Action: "decide"},
	{Role: RoleManager, Resource: "employee", Action: "reportees"},

	{Role: RoleHR, Resource: "leave", Action: "read_all"},
	{Role: RoleHR, Resource: "balance", Action: "read_all"},
	{Role: RoleHR, Resource: "balance", Action: "rollover"},
	{Role: RoleHR, Resource: "employee", Action: "read_all"},
	{Role: RoleHR, Resource: "employee", Action: "create"},
	{Role: RoleHR, Resource: "employee", Action: "update"},
	{Role: RoleHR, Resource: "employee", Action: "delete"},
}
