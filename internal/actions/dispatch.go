package actions

import (
	"context"

	"github.com/partyline-dev/partyline/internal/validation"
)

type handler func(a *Actions, ctx context.Context, ri RequestInfo, raw []byte) Result

// withInput decodes raw into T before calling fn. Bodies that fail to
// decode or validate never reach fn.
func withInput[T validation.Schema[T]](fn func(a *Actions, ctx context.Context, ri RequestInfo, input T) Result) handler {
	return func(a *Actions, ctx context.Context, ri RequestInfo, raw []byte) Result {
		v := validation.Decode[T](raw)
		if !v.Success {
			return invalid(v)
		}
		return fn(a, ctx, ri, v.Data)
	}
}

var registry = map[string]handler{
	"signUp": withInput((*Actions).SignUp),
	"signIn": withInput((*Actions).SignIn),
	"signOut": func(a *Actions, ctx context.Context, ri RequestInfo, _ []byte) Result {
		return a.SignOut(ctx, ri)
	},
	"getSession": func(a *Actions, ctx context.Context, ri RequestInfo, _ []byte) Result {
		return a.GetSession(ctx, ri)
	},
	"setRole": withInput((*Actions).SetRole),
}

// Dispatch runs the named action against a JSON body. ok is false for
// unknown names.
func (a *Actions) Dispatch(ctx context.Context, name string, ri RequestInfo, raw []byte) (result Result, ok bool) {
	h, ok := registry[name]
	if !ok {
		return Result{}, false
	}
	return h(a, ctx, ri, raw), true
}

// Names lists the registered actions
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
