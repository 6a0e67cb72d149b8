// Notesync incrementally renders a tree of notes into HTML.
package main

import "github.com/albertocavalcante/notesync/cmd/notesync/internal/cli"

func main() {
	cli.Execute()
}
