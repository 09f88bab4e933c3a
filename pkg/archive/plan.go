package archive

type Plan struct {
	Enabled bool
	Format  Format
	Level   Level

	// Global Flags
	DryRun bool
}
