package revalidate

// Trigger names what caused a revalidation.
type Trigger string

const (
	TriggerMount     Trigger = "mount"
	TriggerInterval  Trigger = "interval"
	TriggerFocus     Trigger = "focus"
	TriggerReconnect Trigger = "reconnect"
	TriggerManual    Trigger = "manual"
	TriggerRefresh   Trigger = "refresh"
)

// dedupes reports whether t honours the deduping window.
func (t Trigger) dedupes() bool {
	switch t {
	case TriggerInterval, TriggerRefresh:
		return false
	}
	return true
}
