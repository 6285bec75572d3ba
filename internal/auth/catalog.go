package auth

// Permission names used across the service. The *_chemicals/_experiments
// groups guard the journal records; read/write/delete are the legacy coarse
// permissions kept for roles issued before the catalog existed.
const (
	PermReadChemicals     = "read_chemicals"
	PermWriteChemicals    = "write_chemicals"
	PermDeleteChemicals   = "delete_chemicals"
	PermReadExperiments   = "read_experiments"
	PermWriteExperiments  = "write_experiments"
	PermDeleteExperiments = "delete_experiments"
	PermReadUsers         = "read_users"
	PermManageUsers       = "manage_users"
	PermManageRoles       = "manage_roles"
	PermViewDashboard     = "view_dashboard"
	PermSystemAdmin       = "system_admin"
	PermLegacyRead        = "read"
	PermLegacyWrite       = "write"
	PermLegacyDelete      = "delete"
)

// Role names of the built-in system roles. RoleGuest is the registration
// default.
const (
	RoleAdmin      = "admin"
	RoleResearcher = "researcher"
	RoleStudent    = "student"
	RoleGuest      = "guest"
)

// BuiltinPermissions is the full permission catalog ensured at bootstrap.
var BuiltinPermissions = []Permission{
	{Name: PermReadChemicals, Description: "View chemical inventory", Category: "chemicals"},
	{Name: PermWriteChemicals, Description: "Add and edit chemicals", Category: "chemicals"},
	{Name: PermDeleteChemicals, Description: "Delete chemicals", Category: "chemicals"},
	{Name: PermReadExperiments, Description: "View experiments", Category: "experiments"},
	{Name: PermWriteExperiments, Description: "Create and edit experiments", Category: "experiments"},
	{Name: PermDeleteExperiments, Description: "Delete experiments", Category: "experiments"},
	{Name: PermReadUsers, Description: "View user information", Category: "users"},
	{Name: PermManageUsers, Description: "Create, edit, and delete users", Category: "users"},
	{Name: PermManageRoles, Description: "Create and manage roles and permissions", Category: "roles"},
	{Name: PermViewDashboard, Description: "Access dashboard", Category: "system"},
	{Name: PermSystemAdmin, Description: "Full system administration", Category: "system"},
	{Name: PermLegacyRead, Description: "General read access", Category: "legacy"},
	{Name: PermLegacyWrite, Description: "General write access", Category: "legacy"},
	{Name: PermLegacyDelete, Description: "General delete access", Category: "legacy"},
}

// SystemRoles holds the canonical definitions the built-in roles are
// resynced to on every startup.
var SystemRoles = []Role{
	{
		Name:        RoleAdmin,
		DisplayName: "Administrator",
		Description: "Full system access with all permissions",
		Permissions: []string{
			PermReadChemicals, PermWriteChemicals, PermDeleteChemicals,
			PermReadExperiments, PermWriteExperiments, PermDeleteExperiments,
			PermReadUsers, PermManageUsers, PermManageRoles,
			PermViewDashboard, PermSystemAdmin,
			PermLegacyRead, PermLegacyWrite, PermLegacyDelete,
		},
		System: true,
	},
	{
		Name:        RoleResearcher,
		DisplayName: "Researcher",
		Description: "Can manage chemicals and experiments",
		Permissions: []string{
			PermReadChemicals, PermWriteChemicals, PermDeleteChemicals,
			PermReadExperiments, PermWriteExperiments, PermDeleteExperiments,
			PermViewDashboard,
			PermLegacyRead, PermLegacyWrite, PermLegacyDelete,
		},
		System: true,
	},
	{
		Name:        RoleStudent,
		DisplayName: "Student",
		Description: "Can view and create chemicals and experiments",
		Permissions: []string{
			PermReadChemicals, PermWriteChemicals,
			PermReadExperiments, PermWriteExperiments,
			PermViewDashboard,
			PermLegacyRead, PermLegacyWrite,
		},
		System: true,
	},
	{
		Name:        RoleGuest,
		DisplayName: "Guest",
		Description: "Read-only access to chemicals and experiments",
		Permissions: []string{
			PermReadChemicals, PermReadExperiments, PermViewDashboard,
			PermLegacyRead,
		},
		System: true,
	},
}
