package taskbot

// ControlMode is the state the bot's external state machine is in. The
// synchronizer only distinguishes agent-controlled from everything
// else: in every other mode the rendered body is authoritative and the
// steering agent dead-reckons to it.
type ControlMode uint8

const (
	// ControlAgentControlled lets the steering agent drive the body.
	ControlAgentControlled ControlMode = iota
	// ControlScripted hands the body to externally scripted motion.
	ControlScripted
	// ControlCleansing is the scripted purge sequence flying bots run
	// after turning good.
	ControlCleansing
)

func (m ControlMode) String() string {
	switch m {
	case ControlAgentControlled:
		return "agent-controlled"
	case ControlScripted:
		return "scripted"
	case ControlCleansing:
		return "cleansing"
	default:
		return "unknown"
	}
}

// Controller is the bot's external finite-state machine. Mode is read
// every sync pass; Request instructs the machine to transition, which
// it may honor immediately or on its own schedule.
type Controller interface {
	Mode() ControlMode
	Request(ControlMode)
}

// Kind is the closed set of TaskBot variants.
type Kind uint8

const (
	KindGround Kind = iota
	KindFlying
)

func (k Kind) String() string {
	switch k {
	case KindGround:
		return "ground"
	case KindFlying:
		return "flying"
	default:
		return "unknown"
	}
}

// onBecameGood returns the control mode a freshly cleansed bot of this
// kind asks its state machine to enter. Flying bots run a scripted
// cleansing sequence first; ground bots steer straight back to their
// path.
func (k Kind) onBecameGood() ControlMode {
	if k == KindFlying {
		return ControlCleansing
	}
	return ControlAgentControlled
}
