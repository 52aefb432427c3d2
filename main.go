package main

import "github.com/daveschumaker/gbm/cmd"

func main() {
	cmd.Execute()
}
