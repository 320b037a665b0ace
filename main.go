package main

import "github.com/atlasview/atlasview/cmd"

func main() {
	cmd.Execute()
}
