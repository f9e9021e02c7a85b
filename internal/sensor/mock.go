package sensor

// Public API to easy create sensor stubs to test your code.

import "sync/atomic"

type Mock struct {
	ReadyFunc func() bool
	FetchFunc func() (Reading, error)

	fetchCount int32
}

func (self *Mock) Ready() bool {
	if self.ReadyFunc != nil {
		return self.ReadyFunc()
	}
	return true
}

func (self *Mock) Fetch() (Reading, error) {
	atomic.AddInt32(&self.fetchCount, 1)
	if self.FetchFunc != nil {
		return self.FetchFunc()
	}
	return Reading{}, nil
}

func (self *Mock) FetchCount() int32 { return atomic.LoadInt32(&self.fetchCount) }

var _ Sensorer = &Mock{}
