// Package scene models a rendered diagram as a mutable in-memory SVG tree.
//
// The interaction engine treats the rendered output as an external document
// it queries live: element lookup by id, ancestor walks, class predicates
// and class mutation. [Parse] decodes renderer markup into a [Scene];
// [Scene.Markup] writes it back, carrying highlight classes and the
// viewport transform with it.
//
// # Building scenes in tests
//
// [El] and [Text] build trees directly, so graph and selection logic can be
// exercised without a renderer:
//
//	root := scene.El("svg").Append(
//	    scene.El("g", "id", "flowchart-A-0", "class", "node").Append(
//	        scene.El("rect", "width", "40", "height", "20"),
//	    ),
//	)
//	s := scene.New(root)
//
// # Geometry
//
// [Scene.BBox], [Scene.ContentBBox] and [Scene.ElementAt] work in root user
// space: element transform attributes (translate, scale, rotate, skew,
// matrix) are composed down the tree, while the root's own style transform
// is left to the viewport. Curves are sampled and text extents are
// estimated from font size, which is precise enough for auto-fit and
// pointer hit-testing.
package scene
