// Package choices serves the structured choice data relation widgets ask for
// through their browse link.
//
// The handler answers GET and HEAD requests carrying type=choices. Every
// other query parameter is a filter; filters also named by an exclude
// parameter are echoed back under "filters" instead of restricting results.
// The q and limit parameters search labels and cap the result size:
//
//	GET /admin/users/?type=choices&status=active&exclude=status&q=ad
//	{"data":[{"value":"1","label":"ada"}],"filters":{"status":"active"}}
//
// RegisterBundles mounts one handler per bundle at the bundle path, guarded
// by the bundle's own permission check for its main view.
package choices
