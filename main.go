package main

import "github.com/theirongolddev/estateplan/cmd"

func main() {
	cmd.Execute()
}
