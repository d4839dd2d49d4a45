// Package eval implements the expression evaluator consumed by if/when
// tests, foreach collection expressions, bind values, and the bodies of
// ${...} and #{...} template tokens.
//
// The grammar itself (property paths, comparisons, boolean combinators,
// numeric/string literals) is delegated to github.com/expr-lang/expr rather
// than hand rolled; this package only fixes truthiness semantics and wraps
// compile/run errors into the EvaluationError kind.
package eval
