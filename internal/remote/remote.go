package remote

import "sort"

// ChangeType describes how a property changed.
type ChangeType int8

// Change types.
const (
	ChangeAdded ChangeType = iota
	ChangeModified
	ChangeDeleted
)

// String returns the change type name.
func (t ChangeType) String() string {
	switch t {
	case ChangeAdded:
		return "ADDED"
	case ChangeModified:
		return "MODIFIED"
	case ChangeDeleted:
		return "DELETED"
	default:
		return "UNKNOWN"
	}
}

// Change describes one property change inside a namespace. Changes are
// ephemeral: produced per remote notification and never persisted.
type Change struct {
	Namespace    string
	PropertyName string
	OldValue     string
	NewValue     string
	ChangeType   ChangeType
}

// ChangeListener receives change notifications. Listeners for different
// namespaces may be invoked concurrently; within one namespace,
// invocation order matches the remote notification order.
type ChangeListener func(Change)

// Config is one namespace's fetched configuration handle.
type Config interface {
	// Property returns the current value for key and whether it exists.
	Property(key string) (string, bool)
	// PropertyNames returns all known keys.
	PropertyNames() []string
	// AddChangeListener subscribes listener to future changes. Listeners
	// are never detached for the config's lifetime.
	AddChangeListener(listener ChangeListener)
}

// Client resolves namespaces into Config handles.
type Client interface {
	// GetConfig fetches the configuration for namespace. Fetch failures
	// are returned untouched; the engine neither retries nor suppresses
	// them.
	GetConfig(namespace string) (Config, error)
}

// Diff computes the changes that turn old into updated, in sorted key
// order so that notification order is deterministic.
func Diff(namespace string, old, updated map[string]string) []Change {
	keys := make(map[string]struct{}, len(old)+len(updated))
	for k := range old {
		keys[k] = struct{}{}
	}
	for k := range updated {
		keys[k] = struct{}{}
	}

	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	var changes []Change
	for _, k := range sorted {
		oldValue, hadOld := old[k]
		newValue, hasNew := updated[k]
		switch {
		case !hadOld && hasNew:
			changes = append(changes, Change{
				Namespace:    namespace,
				PropertyName: k,
				NewValue:     newValue,
				ChangeType:   ChangeAdded,
			})
		case hadOld && !hasNew:
			changes = append(changes, Change{
				Namespace:    namespace,
				PropertyName: k,
				OldValue:     oldValue,
				ChangeType:   ChangeDeleted,
			})
		case oldValue != newValue:
			changes = append(changes, Change{
				Namespace:    namespace,
				PropertyName: k,
				OldValue:     oldValue,
				NewValue:     newValue,
				ChangeType:   ChangeModified,
			})
		}
	}
	return changes
}
