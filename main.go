package main

import "example.com/backstage/services/inventory/cmd"

func main() {
	cmd.Execute()
}
