// Package widgets renders CMS form controls.
//
// The central piece is RelationWidget, a hidden reference input wrapped in a
// container that carries the referenced record's label plus links to browse
// and add records of the target model:
//
//	<div class="api-select" data-title="Ada" data-api="/admin/users/?type=choices" data-add="/admin/users/add/?popup=1">
//	  <input type="hidden" name="author" value="1">
//	</div>
//
// Which record is referenced and which restriction the browse link carries
// is decided by a LookupStrategy: ForeignKey for relation fields, ModelLookup
// for forms that pick a model directly.
//
// The remaining widgets (dates, time choices, slugs, rich text, ordering
// fields) cover the other field kinds. Registry maps field kinds to widget
// factories; markup comes from pongo2 templates embedded in the package and
// can be replaced through the render/template seam.
package widgets
