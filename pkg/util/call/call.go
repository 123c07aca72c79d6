package call

// Call is a deferred error-returning function
type Call func() error

// Perform runs calls in order and stops on the first error
func Perform(calls ...Call) error {
	for _, call := range calls {
		if err := call(); err != nil {
			return err
		}
	}
	return nil
}

// WithArgs binds two arguments to a call
func WithArgs[Arg1, Arg2 any](
	call func(Arg1, Arg2) error, arg1 Arg1, arg2 Arg2,
) Call {
	return func() error {
		return call(arg1, arg2)
	}
}

// WithArgs3 binds three arguments to a call
func WithArgs3[Arg1, Arg2, Arg3 any](
	call func(Arg1, Arg2, Arg3) error, arg1 Arg1, arg2 Arg2, arg3 Arg3,
) Call {
	return func() error {
		return call(arg1, arg2, arg3)
	}
}
