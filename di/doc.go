// Package di provides the dependency injection container for the service
// runtime. Factories are registered under unique names and resolved on
// demand, with singleton memoization, per-call cycle detection, and
// type-safe resolution via generics.
//
// # Registration
//
//	c := di.NewContainer()
//	c.Register("passwords", func(r di.Resolver) (any, error) {
//	    repo, err := r.Resolve("passwordRepo")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return NewPasswordService(repo), nil
//	}, di.Singleton())
//
// # Resolution
//
//	svc := di.MustResolve[*PasswordService](c, "passwords")
package di
