package main

import "ecoloop/cmd/server/commands"

func main() {
	commands.Execute()
}
