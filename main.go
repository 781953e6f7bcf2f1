package main

import "github.com/KaramelBytes/studash/cmd"

func main() {
	cmd.Execute()
}
