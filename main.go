package main

import "github.com/shopworks/mailroom/cmd"

func main() {
	cmd.Execute()
}
