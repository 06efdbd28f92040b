// Command aichat is a terminal chat client and the relay server it talks to.
package main

import "github.com/diogo/aichat/internal/commands"

func main() {
	commands.Execute()
}
