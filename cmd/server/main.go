package main

import "github.com/studentaffairs/portal/cmd/server/cmd"

func main() {
	cmd.Execute()
}
