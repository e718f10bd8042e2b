package main

import "github.com/reqsift/reqsift/internal/cmd"

func main() {
	cmd.Execute()
}
