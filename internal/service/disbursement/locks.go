package disbursement

import "sync"

// employerLocks serializes submissions per employer. Two concurrent
// batches for the same employer would otherwise both pass the balance
// check against a stale snapshot and jointly overdraw the account.
// Entries are one mutex per distinct employer and are never evicted.
type employerLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newEmployerLocks() *employerLocks {
	return &employerLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire blocks until the employer's lock is held and returns the
// release function.
func (l *employerLocks) acquire(employer string) func() {
	l.mu.Lock()
	m, ok := l.locks[employer]
	if !ok {
		m = &sync.Mutex{}
		l.locks[employer] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
