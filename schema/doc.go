// Package schema implements the algebraic type system used by the
// rowbind IR and code generators.
//
// Every row and reducer-parameter shape is described by an
// [AlgebraicType]: a closed variant set built from primitive scalars
// via product (all-of) and sum (one-of) composition, plus homogeneous
// arrays and ordered maps. Option-of-T is sugar for the two-variant
// sum {some(T), none}.
//
// Types are plain values with structural equality and a deterministic
// traversal order: product fields in declaration order, sum variants
// in declaration order. Generators rely on this to produce
// byte-identical output across runs.
//
// # Quick Start
//
//	row, err := schema.Product(
//	    schema.Field("identity", schema.U64()),
//	    schema.Field("name", schema.Option(schema.String())),
//	    schema.Field("online", schema.Bool()),
//	)
//
// Construction is the only fallible operation: a product with a
// duplicate field name, a sum with a duplicate variant name, or a map
// keyed by a type without total equality all fail with a wrapped
// sentinel error from this package.
package schema
