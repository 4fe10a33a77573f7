// Package prefixer adds and removes CSS vendor prefixes.
//
// A Processor resolves browserslist queries to target browsers, looks up
// which features those browsers still need prefixes for, and rewrites a
// stylesheet accordingly:
//
//	res, err := prefixer.New(log).Process(ctx, css, prefixer.Options{
//		Browsers: []string{"last 2 versions"},
//		Cascade:  true,
//		Remove:   true,
//	})
//
// Input is parsed losslessly, so everything the processor does not touch
// is reproduced exactly. Three dialects are supported: tolerant plain CSS,
// SCSS, and HTML documents whose <style> elements and style attributes are
// processed as CSS.
//
// Handled rewrites:
//
//   - prefixed copies of properties (border-radius, transform, ...)
//   - prefixed values (gradients, sticky, intrinsic sizes, cursors)
//   - the 2009, 2012 and final flexbox syntaxes
//   - prefixed @keyframes
//   - removal of prefixes no target needs
//
// Comments "autoprefixer: off" and "autoprefixer: ignore next" disable
// processing of a block or of the next node.
//
// Parse failures are returned as *SyntaxError. Non-fatal problems, such as
// outdated gradient directions, are reported as warnings on the Result.
package prefixer
