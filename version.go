package railways

// Version is the current release of the engine and its HTTP API.
const Version = "0.4.0"
