package activity

import "strings"

// Verbs emitted by the state runtime.
const (
	VerbScopeRegistered   = "scope.registered"
	VerbScopeUnregistered = "scope.unregistered"
	VerbScopeReplaced     = "scope.replaced"
	VerbScopeEvicted      = "scope.evicted"
	VerbScopeDisposed     = "scope.disposed"
	VerbStateSet          = "state.set"
	VerbStateRestored     = "state.restored"
	VerbResolveMissed     = "resolve.missed"
)

// Object types carried on events.
const (
	ObjectScope   = "scope"
	ObjectState   = "state"
	ObjectResolve = "resolve"
)

// ScopeEventInput describes a scope lifecycle transition.
type ScopeEventInput struct {
	ScopeID   string
	ScopeName string
	Members   int
	Active    int
	Capacity  int
	Metadata  map[string]any
}

// StateEventInput describes a container mutation or restoration.
type StateEventInput struct {
	Key      string
	Type     string
	Value    any
	Metadata map[string]any
}

// ResolveEventInput describes a failed global lookup.
type ResolveEventInput struct {
	Type     string
	Active   int
	Reason   string
	Metadata map[string]any
}

// BuildScopeEvent constructs a normalized scope lifecycle event for verb.
func BuildScopeEvent(verb string, input ScopeEventInput) Event {
	metadata := ensureMetadata(cloneMap(input.Metadata))
	if input.ScopeName != "" {
		metadata["scope_name"] = input.ScopeName
	}
	metadata["members"] = input.Members
	metadata["active"] = input.Active
	if input.Capacity > 0 {
		metadata["capacity"] = input.Capacity
	}
	return Event{
		Verb:       verb,
		ObjectType: ObjectScope,
		ObjectID:   fallback(input.ScopeID, input.ScopeName, ObjectScope),
		Metadata:   metadata,
	}
}

// BuildStateEvent constructs a normalized container event for verb.
func BuildStateEvent(verb string, input StateEventInput) Event {
	metadata := ensureMetadata(cloneMap(input.Metadata))
	if input.Type != "" {
		metadata["type"] = input.Type
	}
	if input.Value != nil {
		metadata["value"] = input.Value
	}
	return Event{
		Verb:       verb,
		ObjectType: ObjectState,
		ObjectID:   fallback(input.Key, input.Type, ObjectState),
		Metadata:   metadata,
	}
}

// BuildResolveMissedEvent constructs an event describing a failed resolve.
func BuildResolveMissedEvent(input ResolveEventInput) Event {
	metadata := ensureMetadata(cloneMap(input.Metadata))
	metadata["active"] = input.Active
	if input.Reason != "" {
		metadata["reason"] = input.Reason
	}
	return Event{
		Verb:       VerbResolveMissed,
		ObjectType: ObjectResolve,
		ObjectID:   fallback(input.Type, ObjectResolve),
		Metadata:   metadata,
	}
}

func fallback(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
