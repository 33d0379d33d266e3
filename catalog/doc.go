// Package catalog maps function names to compiled objective functions.
//
// A catalog file is a JSON, YAML or TOML mapping from name to definition.
// A definition is either the program source itself or an object:
//
//	sphere: "sum(x .^ 2)"
//	rosenbrock:
//	  function: |
//	    var a = x[1:dim(x)-1];
//	    var b = x[2:dim(x)];
//	    sum(100 * (b - a .^ 2) .^ 2 + (ones(dim(a)) - a) .^ 2)
//	  dimension: d
//	  minimum_x: 1
//	  minimum_f: 0
//	  description: Rosenbrock valley
//
// dimension is a positive integer or "d" for any dimension. minimum_x is a
// number repeated in every coordinate, a list of numbers, or an expression
// over d returning either. minimum_f is a number or an expression over d.
// Metadata expressions use the expr language (github.com/expr-lang/expr),
// for example "-418.9829 * d" or "map(1..d, 420.9687)".
//
// Every function is compiled once when the catalog is built; a catalog is
// read-only afterwards and safe for concurrent use.
package catalog
