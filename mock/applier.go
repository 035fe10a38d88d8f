package mock

import "github.com/fwojciec/redline"

// Compile-time interface verification.
var _ redline.Applier = (*Applier)(nil)

// Applier is a mock implementation of redline.Applier.
type Applier struct {
	AcceptFn    func(id string) (redline.Transaction, error)
	RejectFn    func(id string) (redline.Transaction, error)
	AcceptAllFn func() (redline.Transaction, error)
	RejectAllFn func() (redline.Transaction, error)
	RevertFn    func(tx redline.Transaction) error
	ApplyFn     func(tx redline.Transaction) error
}

func (a *Applier) Accept(id string) (redline.Transaction, error) {
	return a.AcceptFn(id)
}

func (a *Applier) Reject(id string) (redline.Transaction, error) {
	return a.RejectFn(id)
}

func (a *Applier) AcceptAll() (redline.Transaction, error) {
	return a.AcceptAllFn()
}

func (a *Applier) RejectAll() (redline.Transaction, error) {
	return a.RejectAllFn()
}

func (a *Applier) Revert(tx redline.Transaction) error {
	return a.RevertFn(tx)
}

func (a *Applier) Apply(tx redline.Transaction) error {
	return a.ApplyFn(tx)
}
