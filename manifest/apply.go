package manifest

import (
	"context"
	"fmt"

	"github.com/chazu/classdispatch/dispatch"
)

// Apply marks the declared primitive generics and registers every scripted
// method with r. Later declarations for the same (generic, class) win.
func (m *Manifest) Apply(r *dispatch.Resolver) error {
	for _, g := range m.Generics {
		if !g.Primitive {
			continue
		}
		if err := r.MarkPrimitive(g.Name); err != nil {
			return fmt.Errorf("generic %q: %w", g.Name, err)
		}
	}
	for _, meth := range m.Methods {
		if err := r.RegisterLabeled(meth.Generic, dispatch.ClassTag(meth.Class), meth.Label, meth.Func()); err != nil {
			return err
		}
	}
	return nil
}

// Func builds the method implementation described by meth.
func (meth Method) Func() dispatch.MethodFunc {
	reclass := dispatch.Classes(meth.Reclass...)
	return func(ctx context.Context, obj *dispatch.Object, args *dispatch.Args) (any, error) {
		if reclass != nil && obj != nil {
			obj.SetClass(reclass)
		}
		if !meth.Next {
			return meth.Returns, nil
		}
		rest, err := dispatch.NextMethod(ctx)
		if err != nil {
			return nil, err
		}
		return fmt.Sprintf("%s -> %v", meth.Returns, rest), nil
	}
}

// Object builds a fresh receiver from the named object declaration.
func (m *Manifest) Object(name string) (*dispatch.Object, error) {
	for _, o := range m.Objects {
		if o.Name != name {
			continue
		}
		implicit := dispatch.Classes(o.Implicit...)
		if implicit == nil {
			implicit = dispatch.ImplicitClassOf(nil)
		}
		return dispatch.NewObjectWithImplicit(nil, implicit, dispatch.Classes(o.Class...)...), nil
	}
	return nil, fmt.Errorf("no object named %q in %s", name, FileName)
}
