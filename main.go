package main

import "github.com/fieldwork/dispatch/cmd"

func main() {
	cmd.Execute()
}
