package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
)

// ActionView is the policy action checked for every bundle view.
const ActionView = "view"

// DefaultModel is an RBAC model whose objects are "<bundle>/<view>" keys with
// keyMatch wildcards, e.g. "accounts_admin/*".
const DefaultModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch(r.obj, p.obj) && r.act == p.act
`

// UserSubject returns the casbin subject for a username.
func UserSubject(username string) string {
	return "user:" + strings.ToLower(strings.TrimSpace(username))
}

// GroupSubject returns the casbin subject for a group name.
func GroupSubject(group string) string {
	return "group:" + strings.ToLower(strings.TrimSpace(group))
}

// CasbinAuthorizer keeps the staff gate and superuser bypass, then asks the
// enforcer about the user subject and each of the user's group subjects.
// Bundle and view group lists are ignored; the policy is authoritative.
type CasbinAuthorizer struct {
	enforcer *casbin.Enforcer
}

var _ Authorizer = (*CasbinAuthorizer)(nil)

// NewCasbinAuthorizer loads a model file and a CSV policy file.
func NewCasbinAuthorizer(modelPath, policyPath string) (*CasbinAuthorizer, error) {
	if strings.TrimSpace(modelPath) == "" {
		return nil, errors.New("auth: casbin model path is required")
	}
	enforcer, err := casbin.NewEnforcer(modelPath)
	if err != nil {
		return nil, fmt.Errorf("auth: casbin enforcer: %w", err)
	}
	if strings.TrimSpace(policyPath) != "" {
		enforcer.SetAdapter(fileadapter.NewAdapter(policyPath))
		if err := enforcer.LoadPolicy(); err != nil {
			return nil, fmt.Errorf("auth: casbin load policy: %w", err)
		}
	}
	return &CasbinAuthorizer{enforcer: enforcer}, nil
}

// NewCasbinAuthorizerFromText builds an enforcer from model text (DefaultModel
// when empty) with an empty in-memory policy; use Allow and Inherit to fill it.
func NewCasbinAuthorizerFromText(modelText string) (*CasbinAuthorizer, error) {
	if strings.TrimSpace(modelText) == "" {
		modelText = DefaultModel
	}
	m, err := casbinmodel.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("auth: casbin model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("auth: casbin enforcer: %w", err)
	}
	return &CasbinAuthorizer{enforcer: enforcer}, nil
}

// Allow grants subject the view action on object.
func (a *CasbinAuthorizer) Allow(subject, object string) error {
	if _, err := a.enforcer.AddPolicy(subject, object, ActionView); err != nil {
		return fmt.Errorf("auth: add policy %s %s: %w", subject, object, err)
	}
	return nil
}

// Inherit makes member inherit every permission of parent.
func (a *CasbinAuthorizer) Inherit(member, parent string) error {
	if _, err := a.enforcer.AddGroupingPolicy(member, parent); err != nil {
		return fmt.Errorf("auth: add grouping %s %s: %w", member, parent, err)
	}
	return nil
}

// CanView implements Authorizer. Enforcer errors deny access.
func (a *CasbinAuthorizer) CanView(_ context.Context, user User, target Target) bool {
	if a == nil || a.enforcer == nil || !user.CanEnterCMS() {
		return false
	}
	if user.Superuser {
		return true
	}

	object := target.Object()
	subjects := make([]string, 0, len(user.Groups)+1)
	if user.Username != "" {
		subjects = append(subjects, UserSubject(user.Username))
	}
	for _, group := range user.Groups {
		subjects = append(subjects, GroupSubject(group))
	}
	for _, subject := range subjects {
		ok, err := a.enforcer.Enforce(subject, object, ActionView)
		if err == nil && ok {
			return true
		}
	}
	return false
}
