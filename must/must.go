package must

func Be(expr bool, msg string) {
	if !expr {
		panic("assertion failed: " + msg)
	}
}

func NilErr(err error) {
	if nil != err {
		panic("expected nil error, got: " + err.Error())
	}
}

// Value returns v or panics when err is non-nil.
func Value[T any](v T, err error) T {
	NilErr(err)
	return v
}
