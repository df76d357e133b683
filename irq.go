package trx24

// irqLatch moves interrupt servicing out of interrupt context. The interrupt
// only calls signal, which never blocks; the handler runs on a goroutine
// where it may take the bus like any other caller.
//
// Pending signals coalesce. That loses nothing because the handler reads
// IRQ_STATUS, which accumulates every source raised since the last read.
type irqLatch struct {
	pending chan struct{}
	done    chan struct{}
}

func newIRQLatch(handler func()) *irqLatch {
	l := &irqLatch{
		pending: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go l.run(handler)
	return l
}

func (l *irqLatch) signal() {
	select {
	case l.pending <- struct{}{}:
	default:
		// Already pending
	}
}

func (l *irqLatch) run(handler func()) {
	for {
		select {
		case <-l.done:
			return
		case <-l.pending:
			handler()
		}
	}
}

func (l *irqLatch) stop() {
	close(l.done)
}
