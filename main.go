package main

import "github.com/jcdickinson/apiperms/cmd"

func main() {
	cmd.Execute()
}
