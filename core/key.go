package core

import (
	"strconv"
	"strings"
)

// NewKey encodes an action identity as its canonical "/<kind>/<name>" string.
// The name is not escaped; it may itself contain "/"-separated segments (for
// example provider-qualified model names such as "openai/gpt-4o-mini").
func NewKey(kind ActionKind, name string) string {
	return "/" + string(kind) + "/" + name
}

// ParseKey decodes a canonical "/<kind>/<name>" key back into its parts.
// It returns an *InvalidKeyError when the key lacks a leading slash, the kind
// token is unknown, or either segment is empty. Everything after the kind
// segment, including any further slashes, is the name.
func ParseKey(key string) (ActionKind, string, error) {
	if key == "" {
		return "", "", &InvalidKeyError{Key: key, Reason: "empty key"}
	}

	if !strings.HasPrefix(key, "/") {
		return "", "", &InvalidKeyError{Key: key, Reason: "missing leading slash"}
	}

	rest := key[1:]

	kindTok, name, ok := strings.Cut(rest, "/")
	if !ok {
		return "", "", &InvalidKeyError{Key: key, Reason: "expected /<kind>/<name>"}
	}

	kind := ActionKind(kindTok)
	if !kind.Valid() {
		return "", "", &InvalidKeyError{Key: key, Reason: "unknown action kind " + strconv.Quote(kindTok)}
	}

	if name == "" {
		return "", "", &InvalidKeyError{Key: key, Reason: "empty name segment"}
	}

	return kind, name, nil
}

// PluginNamespace returns the plugin namespace of an action name: the segment
// before the first "/", or "" when the name carries no namespace prefix.
func PluginNamespace(name string) string {
	if ns, _, ok := strings.Cut(name, "/"); ok {
		return ns
	}
	return ""
}
