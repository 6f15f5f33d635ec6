package main

import "github.com/angelstreet/virtualpytest-sub017/pkg/cli"

func main() {
	cli.Execute()
}
