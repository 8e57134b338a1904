package ir

// EngineVersion is stamped on every journaled event.
const EngineVersion = "0.1.0"
