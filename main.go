package main

import "ringtoned/cmd"

func main() {
	cmd.Execute()
}
