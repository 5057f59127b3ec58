package main

import "github.com/zinc-sig/seance/cmd"

func main() {
	cmd.Execute()
}
