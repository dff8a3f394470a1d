package cmd

// Version is overridden at build time via -ldflags "-X jsm-form-agent/cmd.Version=...".
var Version = "0.2.0"
