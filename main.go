/*
	Copyright 2023 Markus Papenbrock
*/

package main

import "github.com/mpapenbr/pitstop-strategy-manager/cmd"

func main() {
	cmd.Execute()
}
