package internal

// Version is the build version, overridden at build time with
// -ldflags "-X github.com/humanproof/humanproof-node/internal.Version=...".
var Version = "dev"
