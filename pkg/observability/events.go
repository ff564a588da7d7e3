package observability

// Event is one step reported while a construct is assembled or a custom resource runs.
type Event struct {
	Level      string
	Name       string
	StackID    string
	ResourceID string
	RequestID  string
	Fields     map[string]any
}

// LogEvent writes ev through logger, scoped to the event's stack, resource, and request.
func LogEvent(logger StructuredLogger, ev Event) {
	if logger == nil || ev.Name == "" {
		return
	}

	scoped := logger
	if ev.StackID != "" {
		scoped = scoped.WithStackID(ev.StackID)
	}
	if ev.ResourceID != "" {
		scoped = scoped.WithResourceID(ev.ResourceID)
	}
	if ev.RequestID != "" {
		scoped = scoped.WithRequestID(ev.RequestID)
	}

	fields := map[string]any{"event": ev.Name}
	for k, v := range ev.Fields {
		fields[k] = v
	}

	switch ev.Level {
	case "error":
		scoped.Error(ev.Name, fields)
	case "warn":
		scoped.Warn(ev.Name, fields)
	case "debug":
		scoped.Debug(ev.Name, fields)
	default:
		scoped.Info(ev.Name, fields)
	}
}
