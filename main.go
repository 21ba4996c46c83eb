package main

import "github.com/davep/oldnews/internal/cli"

func main() {
	cli.Execute()
}
