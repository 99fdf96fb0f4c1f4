package docparser

// Options is the full configuration surface of the documentation core.
type Options struct {
	// CommentPrefix marks documentation comment lines.
	CommentPrefix string
	// EmmyLua selects the EmmyLua type grammar for @param/@return payloads;
	// when false the legacy two-field grammar (name + description) is used.
	EmmyLua bool
	// PrivatePrefix forces private visibility on any function whose resolved
	// name starts with it.
	PrivatePrefix string
}

// DefaultOptions returns the options used when no configuration is given.
func DefaultOptions() Options {
	return Options{
		CommentPrefix: "---",
		EmmyLua:       true,
		PrivatePrefix: "_",
	}
}
