package preflight

type Plan struct {
	OutputAccessible bool
	OutputWritable   bool
	RootIsDirectory  bool

	// Global Flags
	DryRun bool
}
