package rbac

// RolePermissions is the default policy. Admins get everything.
var RolePermissions = map[string][]string{
	"student": {
		"upload:create",
		"explain:create",
		"speech:create",
		"quiz:create",
		"quiz:view",
		"attempt:create",
		"attempt:save",
		"attempt:submit",
		"attempt:view-own",
		"report:create",
		"report:view-own",
		"report:email",
		"subscription:activate",
		"user:change_password",
		"activity:view-own",
		"file:view",
	},
	"admin": {
		"*",
	},
}
