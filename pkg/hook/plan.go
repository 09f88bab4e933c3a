package hook

// Plan describes the post-build commands of a single run.
type Plan struct {
	Enabled bool

	// Commands are shell command lines, run one after another.
	Commands []string

	// Global Flags
	DryRun   bool
	FailFast bool
}
