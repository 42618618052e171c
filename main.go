package main

import "pngkit/cmd"

func main() {
	cmd.Execute()
}
