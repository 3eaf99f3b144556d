package main

import "github.com/Rorical/RoriLog/cmd"

func main() {
	cmd.Execute()
}
