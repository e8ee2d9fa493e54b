package botsmith

// Version is the botsmith release, overridden at build time with
// -ldflags "-X github.com/aretw0/botsmith.Version=...".
var Version = "0.1.0-dev"
