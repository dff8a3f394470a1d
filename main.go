package main

import "jsm-form-agent/cmd"

func main() {
	cmd.Execute()
}
