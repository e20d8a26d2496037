package main

import "fitmate/cli"

func main() {
	cli.Execute()
}
