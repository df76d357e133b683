package trx24

// State is the operating state of the transceiver as driven by this package.
type State uint8

const (
	// StateOff is TRX_OFF: clock running, receiver and synthesizer off.
	StateOff State = iota
	// StateTransmitPrepare is PLL_ON: synthesizer locked, ready to strobe.
	StateTransmitPrepare
	// StateListening is RX_ON: waiting for frames.
	StateListening
)

func (s State) String() string {
	switch s {
	case StateOff:
		return "off"
	case StateTransmitPrepare:
		return "transmit-prepare"
	case StateListening:
		return "listening"
	default:
		return "unknown"
	}
}

// command returns the TRX_STATE command that enters s.
func (s State) command() byte {
	switch s {
	case StateTransmitPrepare:
		return cmdPLLOn
	case StateListening:
		return cmdRXOn
	default:
		return cmdTRXOff
	}
}

// status returns the TRX_STATUS value the hardware reports once in s.
func (s State) status() byte {
	switch s {
	case StateTransmitPrepare:
		return statusPLLOn
	case StateListening:
		return statusRXOn
	default:
		return statusTRXOff
	}
}

// canTransition reports whether the driver may move from s to next.
func (s State) canTransition(next State) bool {
	switch next {
	case StateOff:
		return true
	case StateListening:
		return s == StateOff || s == StateTransmitPrepare
	case StateTransmitPrepare:
		return s == StateListening
	}
	return false
}
