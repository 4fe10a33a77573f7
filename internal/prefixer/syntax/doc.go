// Package syntax parses stylesheets into a lossless tree.
//
// Every node keeps the whitespace and punctuation around it, so rendering an
// unmodified tree reproduces the input byte for byte. Code that rewrites the
// tree only changes the text it touches.
//
// Two dialects are supported. DialectSafe accepts broken CSS and keeps what
// it cannot interpret as Raw nodes. DialectSCSS understands nesting, "//"
// comments and #{} interpolation, and reports structural damage as a
// *SyntaxError.
//
// Tokenizing uses github.com/tdewolff/parse/v2/css.
package syntax
