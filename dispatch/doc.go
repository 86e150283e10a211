// Package dispatch implements generic function method dispatch over class
// vectors.
//
// An [Object] carries an ordered class vector of string tags. A generic
// function is a name; methods are registered in a [Table] against
// (generic, class) pairs. [Resolver.Dispatch] walks the receiver's class
// vector left to right, then the "default" sentinel, and invokes the first
// method it finds. Inside a method body, [NextMethod] continues the same walk
// from where the running method was found.
//
// There is no class hierarchy. Inheritance is whatever order the tags appear
// in on the receiver:
//
//	obj := dispatch.NewObject(nil, "ordered", "factor")
//	r.Register("print", "factor", printFactor)
//	r.Register("print", "ordered", func(ctx context.Context, o *dispatch.Object, a *dispatch.Args) (any, error) {
//		fmt.Println("Levels are ordered")
//		return dispatch.NextMethod(ctx)
//	})
//	r.Dispatch(ctx, "print", obj, nil)
//
// Generics marked primitive with [Resolver.MarkPrimitive] also consult the
// receiver's implicit class (derived from its underlying value) before
// falling through to "default".
package dispatch
