package main

import "github.com/theirongolddev/zonerisk/cmd"

func main() {
	cmd.Execute()
}
