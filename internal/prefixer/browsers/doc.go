// Package browsers resolves browserslist queries into concrete browser
// versions.
//
// Supported queries:
//
//	defaults                 > 0.5%, last 2 versions, Firefox ESR, not dead
//	> 5%, >= 5%, < 5%, <= 5% global usage share
//	last 2 versions          the newest releases of every browser
//	last 2 Chrome versions   the newest releases of one browser
//	ie 10, op_mini all       a single version, or every version
//	safari 6-8               an inclusive version range
//	firefox >= 60            a version comparison
//	Firefox ESR              the extended support releases
//	dead                     browsers without updates
//	not <query>              removes matches from the result so far
//
// Queries combine with "," or "or" (union) and "and" (intersection).
// Browser names are case-insensitive and accept common aliases.
//
// Usage data is embedded YAML and results are cached in an LRU cache.
package browsers
