package main

import "chatinput/cmd"

func main() {
	cmd.Execute()
}
