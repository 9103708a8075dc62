package main

import "github.com/Norgate-AV/ueh/cmd"

func main() {
	cmd.Execute()
}
