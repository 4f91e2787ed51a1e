package logger

// CollectErrorEntries exposes the chain walk to the external tests.
var CollectErrorEntries = collectErrorEntries
