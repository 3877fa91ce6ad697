// Package auth decides whether a user may open a bundle view. Bundles consult
// an Authorizer before handing out a view URL, so a link the user cannot
// follow is never rendered.
//
// GroupAuthorizer implements the classic CMS rules: the user must be an
// active staff member; superusers pass; otherwise view level groups are
// checked first, then bundle level groups, and a view with no groups at
// either level is open to all staff. CasbinAuthorizer keeps the same staff
// gate and delegates the rest to a casbin policy.
package auth
