package main

import "github.com/shiftbase/faceclock/cmd"

func main() {
	cmd.Execute()
}
