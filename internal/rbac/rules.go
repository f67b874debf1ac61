package rbac

const (
	RoleStudent   = "student"
	RoleClinician = "clinician"
	RoleAdmin     = "admin"
)

// RolePermissions is the default policy.
var RolePermissions = map[string][]string{
	RoleStudent: {
		"test:view",
		"result:submit",
		"result:view-own",
	},
	RoleClinician: {
		"test:view",
		"test:create",
		"result:submit",
		"result:view-own",
		"result:view-all",
		"result:submit-any",
	},
	RoleAdmin: {
		"*", // everything
	},
}
