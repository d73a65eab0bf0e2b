package main

import "github.com/adeneu/portfolio-web/cmd"

func main() {
	cmd.Execute()
}
