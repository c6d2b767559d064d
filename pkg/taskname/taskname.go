package taskname

const (
	// Authorization protocol maintenance
	NoncePurge   = "nonce:purge"
	SessionSweep = "session:sweep"
)
