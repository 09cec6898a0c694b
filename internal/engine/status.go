package engine

// Status is the single authoritative autosave state exposed to the UI.
// It never holds two values at once.
type Status int

const (
	// StatusIdle means no unsynced change since the last successful save or
	// since initialization.
	StatusIdle Status = iota

	// StatusPending means a change has been detected and backed up locally;
	// the debounce timer is armed but has not fired.
	StatusPending

	// StatusSaving means exactly one save executor call is outstanding.
	StatusSaving

	// StatusSaved means the last save succeeded.
	StatusSaved

	// StatusError means the last save failed; the snapshot remains backed up
	// locally and the next edit or SaveNow re-arms the pipeline.
	StatusError
)

// String returns the lowercase status name used in logs and CLI output.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusSaving:
		return "saving"
	case StatusSaved:
		return "saved"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}
