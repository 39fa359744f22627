package main

import "github.com/frahmantamala/feedback-management/cmd"

func main() {
	cmd.Execute()
}
