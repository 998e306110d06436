// =============================================================================
// help.go - REPL Help Text
// =============================================================================
//
// Help is organized into two dictionaries: dotHelp for the local
// dot-commands handled by the REPL itself, and commandHelp for the module
// commands sent to the engine. ".help" prints an overview; ".help <topic>"
// prints the entry for one command.
//
// =============================================================================

package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// printHelp displays the command overview, or detailed help for topic.
func printHelp(topic string) {
	if topic == "" {
		printHelpOverview()
		return
	}

	// ".help .raw" and ".help raw" are the same topic.
	key := strings.TrimPrefix(strings.ToLower(topic), ".")

	if text, ok := dotHelp[key]; ok {
		fmt.Println(text)
		return
	}
	if text, ok := commandHelp[key]; ok {
		fmt.Println(text)
		return
	}

	fmt.Fprintf(os.Stderr, "Error: No help for '%s'. Type .help to see available commands.\n", topic)
}

// printHelpOverview prints the short listing of every command.
func printHelpOverview() {
	fmt.Println("Local commands:")
	fmt.Println("  .help [topic]   Show help")
	fmt.Println("  .raw            Toggle printing of the parsed record tree")
	fmt.Println("  .quit           Exit the client")
	fmt.Println()
	fmt.Println("Engine commands:")
	for _, name := range sortedKeys(commandHelp) {
		summary, _, _ := strings.Cut(commandHelp[name], "\n")
		fmt.Printf("  %-15s %s\n", name, summary)
	}
	fmt.Println()
	fmt.Println("Commands are case-insensitive. Type '.help <command>' for details.")
}

// sortedKeys returns the keys of m in lexical order.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// dotHelp holds detailed help for the local dot-commands.
var dotHelp = map[string]string{
	"help": `Show help
  .help           List all commands
  .help <topic>   Show details for one command`,

	"raw": `Toggle raw output
  When enabled, the whole parsed tree of every record is printed as JSON
  before the decoded notifications. Start with --raw to enable it from
  the beginning.`,

	"quit": `Exit the client
  Disconnects from the engine. The engine keeps running; use 'die' to
  shut it down.`,
}

// commandHelp holds detailed help for the module commands. The first line
// of each entry is its summary in the overview.
var commandHelp = map[string]string{
	"version": `Show engine name, version and configuration
  Sends VERSION and waits for the ENGINEINFO reply.`,

	"status": `Show whether the engine is recognizing
  Sends STATUS and waits for the SYSINFO reply: ACTIVE or SLEEP.`,

	"graminfo": `Show the loaded grammars
  Sends GRAMINFO and waits for the GRAMINFO reply. Alias: grammars.`,

	"pause": `Pause recognition after the current input
  Sends PAUSE. The engine finishes the segment it is processing and then
  stops listening until 'resume'.`,

	"resume": `Resume recognition
  Sends RESUME after 'pause' or 'terminate'.`,

	"terminate": `Stop recognition immediately
  Sends TERMINATE. The current input is discarded. Use 'resume' to
  continue.`,

	"die": `Shut the engine down
  Sends DIE. The engine exits and closes the connection. Alias: shutdown.`,
}
