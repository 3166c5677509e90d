package alert

import "fmt"

// InvalidAlertError rejects an alert before it reaches the store.
type InvalidAlertError struct {
	AssetID string
	Target  string
	Reason  string
}

func (e *InvalidAlertError) Error() string {
	return fmt.Sprintf("invalid alert for %q with target %q: %s", e.AssetID, e.Target, e.Reason)
}

// PersistenceError reports a failed read or write of the alert namespace.
type PersistenceError struct {
	Op      string
	AssetID string
	Err     error
}

func (e *PersistenceError) Error() string {
	if e.AssetID == "" {
		return fmt.Sprintf("alert store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("alert store %s %s: %v", e.Op, e.AssetID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
