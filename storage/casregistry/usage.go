package casregistry

// Usage is a bit set naming the programs a backend may be opened from.
type Usage uint8

const (
	// UsageCLI covers one-shot commands such as xdao-dagcbor.
	UsageCLI Usage = 1 << iota
	// UsageDaemon covers the long-running xdao-dagcbord server.
	UsageDaemon
)

func (u Usage) allows(want Usage) bool { return u&want != 0 }

func (u Usage) String() string {
	switch u {
	case UsageCLI:
		return "cli"
	case UsageDaemon:
		return "daemon"
	case UsageCLI | UsageDaemon:
		return "cli,daemon"
	default:
		return "none"
	}
}
