package main

import "github.com/Manu343726/lc2k/cmd"

func main() {
	cmd.Execute()
}
