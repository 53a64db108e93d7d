package imapclient

// Future is the one-shot completion signal returned by Handler.Submit.
//
// It resolves exactly once, from the same goroutine that drives the
// Handler: there is no blocking Wait method, since the handler itself never
// suspends. Callers either poll Done after driving more I/O, or register a
// callback with OnDone.
type Future struct {
	done bool
	err  error
	cbs  []func(error)
}

// Done reports whether the future has resolved, and if so, with which
// error (nil on success).
func (f *Future) Done() (bool, error) {
	return f.done, f.err
}

// OnDone registers cb to run when the future resolves. If it has already
// resolved, cb runs before OnDone returns.
func (f *Future) OnDone(cb func(error)) {
	if f.done {
		cb(f.err)
		return
	}
	f.cbs = append(f.cbs, cb)
}

// resolve settles the future. The handler guarantees this is called at
// most once per future; a second call is a programmer error.
func (f *Future) resolve(err error) {
	if f.done {
		panic("imapclient: future resolved twice")
	}
	f.done = true
	f.err = err
	cbs := f.cbs
	f.cbs = nil
	for _, cb := range cbs {
		cb(err)
	}
}
