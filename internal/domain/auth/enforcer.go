package auth

import (
	"context"
	"fmt"
	"sort"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

const rbacModel = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj
`

// Enforcer answers role/permission checks from an in-memory casbin policy
// built out of RolePermissions.
type Enforcer struct {
	enforcer *casbin.Enforcer
}

func NewEnforcer(rolePermissions map[string][]string) (*Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("load rbac model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}

	roles := make([]string, 0, len(rolePermissions))
	for role := range rolePermissions {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	for _, role := range roles {
		for _, perm := range rolePermissions[role] {
			if _, err := e.AddPolicy(role, perm); err != nil {
				return nil, fmt.Errorf("add policy %s %s: %w", role, perm, err)
			}
		}
	}
	return &Enforcer{enforcer: e}, nil
}

func (e *Enforcer) HasPermission(_ context.Context, role, permission string) (bool, error) {
	return e.enforcer.Enforce(role, permission)
}
