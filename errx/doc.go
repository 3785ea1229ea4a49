/*
Package errx provides coded, typed errors with details, cause chains and HTTP
status mapping.

# Error Registry

Each package owns a registry with a prefix and registers its error codes once:

	var (
		reg = errx.NewRegistry("DOC")

		ErrNotFound = reg.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Source not found")
	)

	err := reg.New(ErrNotFound).WithDetail("path", path)

	// keep the underlying cause
	err := reg.NewWithCause(ErrNotFound, fs.ErrNotExist)

# Checking

	if errx.IsCode(err, ErrNotFound) {
		// handle the specific code
	}

	if errx.IsType(err, errx.TypeExternal) {
		// any upstream failure
	}

	// errors.Is matches on the code as well
	errors.Is(err, reg.New(ErrNotFound))

# Transport

	e.ToHTTP(w)      // net/http
	return e.ToFiber(c) // Fiber
*/
package errx
