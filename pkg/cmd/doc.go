// Package cmd wires the compiler, instance, and upgrade engines into
// the sdlc command-line tool. It mirrors housekeeper's real, wired
// command tree (cmd/housekeeper/cmd/root.go) rather than the
// fx-injected one that repo's own main.go never imports: a package
// level *config.Config detected in a Before hook, subcommands reading
// it directly, everything logged through log/slog instead of any
// lifecycle framework.
package cmd
