package auth

import (
	"context"
	"strings"
)

// User is the requesting principal as far as view permissions are concerned.
type User struct {
	ID        string   `json:"id,omitempty" yaml:"id,omitempty"`
	Username  string   `json:"username" yaml:"username"`
	Active    bool     `json:"active" yaml:"active"`
	Staff     bool     `json:"staff" yaml:"staff"`
	Superuser bool     `json:"superuser" yaml:"superuser"`
	Groups    []string `json:"groups,omitempty" yaml:"groups,omitempty"`
}

// Anonymous returns the zero user, which can never open a CMS view.
func Anonymous() User {
	return User{}
}

// InGroup reports whether the user belongs to any of groups.
func (u User) InGroup(groups ...string) bool {
	if len(groups) == 0 || len(u.Groups) == 0 {
		return false
	}
	for _, want := range groups {
		want = strings.TrimSpace(want)
		for _, have := range u.Groups {
			if want != "" && want == have {
				return true
			}
		}
	}
	return false
}

// CanEnterCMS reports whether the user passes the staff gate every view shares.
func (u User) CanEnterCMS() bool {
	return u.Active && u.Staff
}

// Target identifies the view being checked.
type Target struct {
	Bundle       string
	View         string
	BundleGroups []string
	ViewGroups   []string
}

// Object returns the "<bundle>/<view>" policy object for the target.
func (t Target) Object() string {
	return t.Bundle + "/" + t.View
}

// Authorizer decides whether user may open target.
type Authorizer interface {
	CanView(ctx context.Context, user User, target Target) bool
}

// AuthorizerFunc adapts a function into an Authorizer.
type AuthorizerFunc func(ctx context.Context, user User, target Target) bool

// CanView calls fn.
func (fn AuthorizerFunc) CanView(ctx context.Context, user User, target Target) bool {
	return fn(ctx, user, target)
}

// GroupAuthorizer applies group membership rules.
type GroupAuthorizer struct{}

var _ Authorizer = GroupAuthorizer{}

// CanView implements Authorizer.
func (GroupAuthorizer) CanView(_ context.Context, user User, target Target) bool {
	if !user.CanEnterCMS() {
		return false
	}
	switch {
	case user.Superuser:
		return true
	case len(target.ViewGroups) > 0:
		return user.InGroup(target.ViewGroups...)
	case len(target.BundleGroups) > 0:
		return user.InGroup(target.BundleGroups...)
	default:
		return true
	}
}

// AllowAll authorizes every request. Intended for tests and local demos.
var AllowAll Authorizer = AuthorizerFunc(func(context.Context, User, Target) bool { return true })
