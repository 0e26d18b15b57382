package driven

// ConnectorFactory creates a Connector bound to a source ID and scan root.
// The orchestrator mints a fresh source ID for every run, so factories
// must not share per-run state between invocations.
type ConnectorFactory func(sourceID, rootPath string) (Connector, error)
