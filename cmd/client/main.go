package main

import "workoutsync/cmd/client/cmd"

func main() {
	cmd.Execute()
}
