// Package bundles holds the admin bundle registry.
//
// A bundle groups the views (list, add, edit, delete) that manage one model.
// Bundles are registered on a Builder at startup and frozen into a Registry;
// widgets never see a half-built registry. Each model has at most one
// primary bundle, which is the one relation widgets link to.
//
// Definitions can also be loaded from JSON or YAML files with LoadFS:
//
//	models:
//	  - id: auth.user
//	    table: users
//	    labelField: username
//	bundles:
//	  - slug: users
//	    model: auth.user
//	    primary: true
//	    groups: [admins]
package bundles
