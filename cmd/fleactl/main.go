package main

import "flea/cmd/fleactl/commands"

func main() {
	commands.Execute()
}
